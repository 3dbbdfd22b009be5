package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/routing"
	"github.com/danmuck/tabletctl/internal/transport"
	"github.com/rs/zerolog/log"
)

// DataForAttribute reads attr of the entity rt addresses, asking the driver
// to coerce the value to dataType.
func (c *Client) DataForAttribute(ctx context.Context, attr, dataType desc.TypeTag, rt desc.Descriptor) (desc.Descriptor, error) {
	prop, err := routing.Property(attr, rt)
	if err != nil {
		return desc.Descriptor{}, err
	}
	return c.request(ctx, c.event(schema.GetData,
		desc.Field{Key: schema.KeyDirectObject, Value: prop},
		desc.Field{Key: schema.KeyRequestedType, Value: desc.NewType(dataType)},
	))
}

// SetBytes writes b as a dataType value into attr of the entity rt addresses.
// A refusal by the driver returns false with a nil error.
func (c *Client) SetBytes(ctx context.Context, b []byte, dataType, attr desc.TypeTag, rt desc.Descriptor) (bool, error) {
	value, err := desc.NewBytes(b, dataType)
	if err != nil {
		return false, err
	}
	prop, err := routing.Property(attr, rt)
	if err != nil {
		return false, err
	}
	code, err := c.send(ctx, c.event(schema.SetData,
		desc.Field{Key: schema.KeyDirectObject, Value: prop},
		desc.Field{Key: schema.KeyData, Value: value},
	))
	if err != nil {
		return false, err
	}
	if code != schema.CodeNoError {
		log.Debug().Int32("errn", code).Str("attr", attr.String()).Msg("driver.SetBytes refused")
		return false, nil
	}
	return true, nil
}

func (c *Client) TabletCount(ctx context.Context) (uint32, error) {
	return c.count(ctx, schema.ClassTablet, routing.Driver())
}

func (c *Client) TransducerCountForTablet(ctx context.Context, tablet uint32) (uint32, error) {
	container, err := routing.Tablet(tablet)
	if err != nil {
		return 0, err
	}
	return c.count(ctx, schema.ClassTransducer, container)
}

func (c *Client) ControlCountOfContext(ctx context.Context, handle uint32, ct routing.ControlType) (uint32, error) {
	class, err := routing.DescTypeFromControlType(ct)
	if err != nil {
		return 0, err
	}
	container, err := routing.Context(handle)
	if err != nil {
		return 0, err
	}
	return c.count(ctx, class, container)
}

func (c *Client) FunctionCountOfControl(ctx context.Context, handle, control uint32, ct routing.ControlType) (uint32, error) {
	container, err := routing.Control(handle, control, ct)
	if err != nil {
		return 0, err
	}
	return c.count(ctx, schema.ClassFunction, container)
}

func (c *Client) count(ctx context.Context, class desc.TypeTag, container desc.Descriptor) (uint32, error) {
	every, err := routing.Every(class, container)
	if err != nil {
		return 0, err
	}
	v, err := c.DataForAttribute(ctx, schema.PropCount, desc.TypeUInt32, every)
	if err != nil {
		return 0, err
	}
	n, err := v.UInt32()
	if err != nil {
		return 0, fmt.Errorf("driver: %s count: %w", class, err)
	}
	return n, nil
}

// IsRemote reports whether err came back from the driver rather than the
// local codec or the transport.
func IsRemote(err error) bool {
	var remote *transport.RemoteError
	return errors.As(err, &remote)
}
