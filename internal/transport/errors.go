package transport

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/routing"
)

var (
	ErrTransport       = errors.New("transport: send failed")
	ErrTimeout         = errors.New("transport: timed out")
	ErrNotModifiable   = errors.New("transport: object not modifiable")
	ErrEventNotHandled = errors.New("transport: event not handled")
	ErrReplyMismatch   = errors.New("transport: reply does not match request")
)

// RemoteError is a reply carrying a non-zero 'errn'.
type RemoteError struct {
	Event   schema.Event
	Code    int32
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transport: event=%s remote error %d", e.Event, e.Code)
	}
	return fmt.Sprintf("transport: event=%s remote error %d: %s", e.Event, e.Code, e.Message)
}

// Unwrap maps well-known driver codes onto local sentinels.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case schema.CodeInvalidContext:
		return routing.ErrInvalidContext
	case schema.CodeNoSuchObject:
		return routing.ErrInvalidIndex
	case schema.CodeWrongDataType:
		return desc.ErrTypeMismatch
	case schema.CodeNotModifiable:
		return ErrNotModifiable
	case schema.CodeEventNotHandled:
		return ErrEventNotHandled
	default:
		return nil
	}
}

func wrapTransport(op string, err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w: %s", ErrTransport, ErrTimeout, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// cancelled reports the context's error in place of the deadline error the
// cancellation hook forces onto the connection. An expired context deadline
// is still a timeout.
func cancelled(ctx context.Context, op string, err error) error {
	ctxErr := ctx.Err()
	switch {
	case ctxErr == nil:
		return wrapTransport(op, err)
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w: %s: %w", ErrTransport, ErrTimeout, op, ctxErr)
	default:
		return fmt.Errorf("%w: %s: %w", ErrTransport, op, ctxErr)
	}
}

func outcomeOf(err error) string {
	var remote *RemoteError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &remote):
		return "remote_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	default:
		return "rejected"
	}
}
