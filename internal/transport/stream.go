package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/danmuck/tabletctl/internal/observability"
	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// Sender is the pair of primitives every driver operation funnels through.
type Sender interface {
	// Send delivers ev and returns the driver's status code. Remote failures
	// are reported through the code, not the error.
	Send(ctx context.Context, ev Event, priority Priority, timeout time.Duration) (int32, error)
	// SendExpectingReply delivers ev and returns the reply's direct object.
	SendExpectingReply(ctx context.Context, ev Event, priority Priority, timeout time.Duration) (desc.Descriptor, error)
}

// Stream is a Sender over stream sockets. It holds no connection between
// calls and is safe for concurrent use.
type Stream struct {
	cfg           session.Config
	nextMessageID atomic.Uint64
}

var _ Sender = (*Stream)(nil)

func NewStream(cfg session.Config) *Stream {
	return &Stream{cfg: cfg.WithDefaults()}
}

func (s *Stream) Send(ctx context.Context, ev Event, priority Priority, timeout time.Duration) (int32, error) {
	start := time.Now()
	reply, err := s.roundTrip(ctx, ev, priority, timeout)
	if err != nil {
		observability.RecordSend(ev.Name().String(), priority.String(), outcomeOf(err), time.Since(start))
		return 0, err
	}
	code, msg, err := reply.ErrorNumber()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransport, err)
		observability.RecordSend(ev.Name().String(), priority.String(), outcomeOf(err), time.Since(start))
		return 0, err
	}
	outcome := "ok"
	if code != schema.CodeNoError {
		outcome = "remote_error"
		log.Debug().Str("event", ev.Name().String()).Int32("errn", code).Str("errs", msg).Msg("transport.Send remote status")
	}
	observability.RecordSend(ev.Name().String(), priority.String(), outcome, time.Since(start))
	return code, nil
}

func (s *Stream) SendExpectingReply(ctx context.Context, ev Event, priority Priority, timeout time.Duration) (desc.Descriptor, error) {
	start := time.Now()
	result, err := s.expectReply(ctx, ev, priority, timeout)
	observability.RecordSend(ev.Name().String(), priority.String(), outcomeOf(err), time.Since(start))
	return result, err
}

func (s *Stream) expectReply(ctx context.Context, ev Event, priority Priority, timeout time.Duration) (desc.Descriptor, error) {
	if ev.NoReply {
		return desc.Descriptor{}, fmt.Errorf("transport: event=%s marked no-reply", ev.Name())
	}
	reply, err := s.roundTrip(ctx, ev, priority, timeout)
	if err != nil {
		return desc.Descriptor{}, err
	}
	code, msg, err := reply.ErrorNumber()
	if err != nil {
		return desc.Descriptor{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if code != schema.CodeNoError {
		return desc.Descriptor{}, &RemoteError{Event: ev.Name(), Code: code, Message: msg}
	}
	return reply.Result(), nil
}

// roundTrip performs one dial, write and optional read. NoReply events
// return an empty successful reply once the frame is written.
func (s *Stream) roundTrip(ctx context.Context, ev Event, priority Priority, timeout time.Duration) (session.Reply, error) {
	if err := ev.Target.Validate(); err != nil {
		return session.Reply{}, err
	}
	req := session.Request{
		MessageID:    s.nextMessageID.Add(1),
		Event:        ev.Name(),
		Params:       ev.requestParams(),
		WantsReply:   !ev.NoReply,
		HighPriority: priority == PriorityHigh,
	}
	payload, err := session.EncodeRequestFrame(req, s.cfg.Limits)
	if err != nil {
		return session.Reply{}, err
	}

	wait := ResolveTimeout(timeout, s.cfg.DefaultTimeout)
	log.Debug().
		Str("event", req.Event.String()).
		Uint64("message_id", req.MessageID).
		Str("priority", priority.String()).
		Str("target", ev.Target.String()).
		Str("timeout", formatTimeout(wait)).
		Msg("transport.send")

	conn, err := s.dial(ctx, ev.Target)
	if err != nil {
		return session.Reply{}, cancelled(ctx, "dial", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := conn.SetWriteDeadline(deadlineFor(ctx, s.cfg.WriteTimeout)); err != nil {
		return session.Reply{}, wrapTransport("write deadline", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return session.Reply{}, cancelled(ctx, "write", err)
	}
	if ev.NoReply {
		return session.Reply{MessageID: req.MessageID, Event: req.Event, Params: desc.NewRecord()}, nil
	}

	if err := conn.SetReadDeadline(deadlineFor(ctx, wait)); err != nil {
		return session.Reply{}, wrapTransport("read deadline", err)
	}
	fr, err := session.ReadFrame(bufio.NewReader(conn), s.cfg.Limits)
	if err != nil {
		return session.Reply{}, cancelled(ctx, "read reply", err)
	}
	reply, err := session.DecodeReplyFrame(fr)
	if err != nil {
		return session.Reply{}, wrapTransport("decode reply", err)
	}
	if reply.MessageID != req.MessageID {
		return session.Reply{}, fmt.Errorf("%w: %w: message_id=%d reply_message_id=%d",
			ErrTransport, ErrReplyMismatch, req.MessageID, reply.MessageID)
	}
	return reply, nil
}

func formatTimeout(d time.Duration) string {
	if d == NoTimeout {
		return "none"
	}
	return d.String()
}

func (s *Stream) dial(ctx context.Context, target Address) (net.Conn, error) {
	dialer := net.Dialer{Timeout: s.cfg.ConnectTimeout}
	return dialer.DialContext(ctx, target.Network, target.Path)
}

// deadlineFor returns now+timeout capped by the context deadline. NoTimeout
// without a context deadline yields the zero time, which clears the deadline.
func deadlineFor(ctx context.Context, timeout time.Duration) time.Time {
	var deadline time.Time
	if timeout != NoTimeout {
		deadline = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}
	return deadline
}
