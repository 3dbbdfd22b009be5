package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/transport"
)

var ErrContextCreation = errors.New("driver: context creation failed")

// ClientConfig holds send defaults applied to every operation.
type ClientConfig struct {
	Target   transport.Address
	Priority transport.Priority
	// Timeout is passed to the sender unchanged; zero selects the transport
	// default and transport.NoTimeout waits indefinitely.
	Timeout time.Duration
}

// Client addresses one driver process. Its target is fixed at construction.
type Client struct {
	cfg    ClientConfig
	sender transport.Sender
}

func NewClient(cfg ClientConfig, sender transport.Sender) (*Client, error) {
	if sender == nil {
		return nil, fmt.Errorf("driver: nil sender")
	}
	if err := cfg.Target.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, sender: sender}, nil
}

func (c *Client) Target() transport.Address {
	return c.cfg.Target
}

// SendWithPriority sends ev to the client's target and returns the driver
// status code.
func (c *Client) SendWithPriority(ctx context.Context, ev transport.Event, priority transport.Priority, timeout time.Duration) (int32, error) {
	ev.Target = c.cfg.Target
	return c.sender.Send(ctx, ev, priority, timeout)
}

// SendExpectingReplyWithPriority sends ev to the client's target and returns
// the reply's direct object.
func (c *Client) SendExpectingReplyWithPriority(ctx context.Context, ev transport.Event, priority transport.Priority, timeout time.Duration) (desc.Descriptor, error) {
	ev.Target = c.cfg.Target
	return c.sender.SendExpectingReply(ctx, ev, priority, timeout)
}

func (c *Client) send(ctx context.Context, ev transport.Event) (int32, error) {
	return c.SendWithPriority(ctx, ev, c.cfg.Priority, c.cfg.Timeout)
}

func (c *Client) request(ctx context.Context, ev transport.Event) (desc.Descriptor, error) {
	return c.SendExpectingReplyWithPriority(ctx, ev, c.cfg.Priority, c.cfg.Timeout)
}

func (c *Client) event(ev schema.Event, params ...desc.Field) transport.Event {
	return transport.NewEvent(ev, c.cfg.Target, params...)
}
