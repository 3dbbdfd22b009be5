package driver

import (
	"context"
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/routing"
	"github.com/rs/zerolog/log"
)

// CreateContextForTablet asks the driver for a new context on tablet index
// and returns its handle.
func (c *Client) CreateContextForTablet(ctx context.Context, index uint32, ct schema.ContextType) (uint32, error) {
	if !ct.Valid() {
		return 0, fmt.Errorf("%w: context type %d", ErrContextCreation, uint32(ct))
	}
	tablet, err := routing.Tablet(index)
	if err != nil {
		return 0, err
	}
	result, err := c.request(ctx, c.event(schema.Create,
		desc.Field{Key: schema.KeyObjectClass, Value: desc.NewType(schema.ClassContext)},
		desc.Field{Key: schema.KeyInsertHere, Value: tablet},
		desc.Field{Key: schema.KeyContextType, Value: desc.NewUInt32(uint32(ct))},
	))
	if err != nil {
		return 0, fmt.Errorf("%w: tablet %d: %w", ErrContextCreation, index, err)
	}
	handle, err := result.UInt32()
	if err != nil {
		return 0, fmt.Errorf("%w: reply %s: %w", ErrContextCreation, result, err)
	}
	if handle == 0 {
		return 0, fmt.Errorf("%w: driver returned handle 0", ErrContextCreation)
	}
	log.Debug().Uint32("tablet", index).Str("type", ct.String()).Uint32("context", handle).Msg("driver.CreateContextForTablet")
	return handle, nil
}

// DestroyContext releases a context handle. A stale handle surfaces
// routing.ErrInvalidContext.
func (c *Client) DestroyContext(ctx context.Context, handle uint32) error {
	rt, err := routing.Context(handle)
	if err != nil {
		return err
	}
	_, err = c.request(ctx, c.event(schema.Delete, desc.Field{Key: schema.KeyDirectObject, Value: rt}))
	return err
}

// ResendLastTabletEventOfType asks the driver to replay its last tablet event
// of the given type. It does not wait for a reply and drops send failures.
func (c *Client) ResendLastTabletEventOfType(ctx context.Context, eventType desc.TypeTag) {
	ev := c.event(schema.Resend,
		desc.Field{Key: schema.KeyDirectObject, Value: routing.Driver()},
		desc.Field{Key: schema.KeyEventType, Value: desc.NewType(eventType)},
	)
	ev.NoReply = true
	if _, err := c.send(ctx, ev); err != nil {
		log.Debug().Err(err).Str("event_type", eventType.String()).Msg("driver.ResendLastTabletEventOfType dropped")
	}
}
