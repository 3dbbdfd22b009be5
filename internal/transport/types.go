package transport

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
)

// Priority selects the driver's dispatch queue for an event.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityNormal, fmt.Errorf("transport: unknown priority %q", s)
	}
}

// NoTimeout waits for the reply without a deadline. It is never substituted
// by the configured default.
const NoTimeout = time.Duration(math.MinInt64)

// ResolveTimeout maps a caller timeout to the one used for a send.
// NoTimeout passes through; zero or negative selects def.
func ResolveTimeout(t, def time.Duration) time.Duration {
	if t == NoTimeout {
		return NoTimeout
	}
	if t <= 0 {
		return def
	}
	return t
}

var ErrInvalidAddress = errors.New("transport: invalid address")

// Address names the driver process. Network and Path reach the socket;
// BundleID travels in the 'addr' parameter.
type Address struct {
	Network  string
	Path     string
	BundleID string
}

func (a Address) Validate() error {
	switch a.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("%w: network %q", ErrInvalidAddress, a.Network)
	}
	if strings.TrimSpace(a.Path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidAddress)
	}
	if strings.TrimSpace(a.BundleID) == "" {
		return fmt.Errorf("%w: empty bundle id", ErrInvalidAddress)
	}
	return nil
}

func (a Address) String() string {
	return a.BundleID + "@" + a.Network + ":" + a.Path
}

// Event is one request to the driver. Params must be a record or Null.
// NoReply events are written without the reply flag and never read.
type Event struct {
	Class   desc.TypeTag
	ID      desc.TypeTag
	Params  desc.Descriptor
	Target  Address
	NoReply bool
}

// NewEvent builds an event for ev with the given parameters.
func NewEvent(ev schema.Event, target Address, params ...desc.Field) Event {
	return Event{Class: ev.Class, ID: ev.ID, Params: desc.NewRecord(params...), Target: target}
}

func (e Event) Name() schema.Event {
	return schema.Event{Class: e.Class, ID: e.ID}
}

// requestParams returns the parameter record with 'addr' stamped in.
func (e Event) requestParams() desc.Descriptor {
	if e.Params.Kind() != desc.KindRecord && !e.Params.IsNull() {
		return e.Params
	}
	fields := append(e.Params.Fields(), desc.Field{Key: schema.KeyAddress, Value: desc.NewText(e.Target.BundleID)})
	return desc.NewRecord(fields...)
}
