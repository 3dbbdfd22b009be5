package driversim

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/danmuck/tabletctl/internal/observability"
	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/frame"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// Server answers request frames against a Model, one request per connection.
type Server struct {
	cfg    Config
	model  *Model
	limits frame.Limits
	// ReadTimeout bounds the wait for a client's request frame.
	ReadTimeout time.Duration

	conns sync.WaitGroup
}

func NewServer(cfg Config) *Server {
	cfg = cfg.withDefaults()
	return &Server{
		cfg:         cfg,
		model:       NewModel(cfg),
		limits:      frame.DefaultLimits(),
		ReadTimeout: 30 * time.Second,
	}
}

func (s *Server) Model() *Model {
	return s.model
}

func (s *Server) BundleID() string {
	return s.cfg.BundleID
}

// ListenAndServe listens on network/addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, network, addr string) error {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or ln fails. It closes ln
// and waits for in-flight connections before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.conns.Wait()
	defer ln.Close()
	log.Info().Str("addr", ln.Addr().String()).Str("bundle_id", s.cfg.BundleID).Msg("driversim listening")

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	fr, err := session.ReadFrame(bufio.NewReader(conn), s.limits)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("driversim read")
		}
		return
	}
	req, err := session.DecodeRequestFrame(fr)
	if err != nil {
		log.Warn().Err(err).Uint64("message_id", fr.Header.MessageID).Msg("driversim decode")
		return
	}

	reply := s.Handle(req)
	if !req.WantsReply {
		return
	}
	raw, err := session.EncodeReplyFrame(reply, s.limits)
	if err != nil {
		log.Error().Err(err).Uint64("message_id", req.MessageID).Msg("driversim encode reply")
		return
	}
	if _, err := conn.Write(raw); err != nil {
		log.Warn().Err(err).Uint64("message_id", req.MessageID).Msg("driversim write reply")
	}
}

// Handle applies one request to the model and builds its reply.
func (s *Server) Handle(req session.Request) session.Reply {
	result, rerr := s.apply(req)
	code := schema.CodeNoError
	var reply session.Reply
	if rerr != nil {
		code = rerr.code
		reply = session.NewErrorReply(req, rerr.code, rerr.msg)
	} else {
		reply = session.NewResultReply(req, result)
	}
	observability.RecordHandled(req.Event.String(), code)
	log.Debug().
		Str("event", req.Event.String()).
		Uint64("message_id", req.MessageID).
		Bool("high_priority", req.HighPriority).
		Int32("errn", code).
		Msg("driversim.Handle")
	return reply
}

func (s *Server) apply(req session.Request) (desc.Descriptor, *replyError) {
	if addr, ok := req.Params.Get(schema.KeyAddress); ok {
		if bundle, err := addr.Text(); err != nil || bundle != s.cfg.BundleID {
			return desc.Descriptor{}, fail(schema.CodeEventNotHandled, "not addressed to %s", s.cfg.BundleID)
		}
	}
	if err := schema.Validate(req.Event, req.Params); err != nil {
		var ve schema.ValidationError
		if errors.As(err, &ve) && ve.Reason == "unknown event" {
			return desc.Descriptor{}, fail(schema.CodeEventNotHandled, "%v", err)
		}
		return desc.Descriptor{}, fail(schema.CodeWrongDataType, "%v", err)
	}

	direct, _ := req.Params.Get(schema.KeyDirectObject)
	switch req.Event {
	case schema.GetData:
		rtyp, _ := req.Params.Get(schema.KeyRequestedType)
		want, _ := rtyp.TypeValue()
		return s.model.GetData(direct, want)

	case schema.SetData:
		data, _ := req.Params.Get(schema.KeyData)
		return desc.Null(), s.model.SetData(direct, data)

	case schema.Create:
		kocl, _ := req.Params.Get(schema.KeyObjectClass)
		class, _ := kocl.TypeValue()
		insh, _ := req.Params.Get(schema.KeyInsertHere)
		wctt, _ := req.Params.Get(schema.KeyContextType)
		kind, _ := wctt.UInt32()
		handle, rerr := s.model.CreateContext(class, insh, schema.ContextType(kind))
		if rerr != nil {
			return desc.Descriptor{}, rerr
		}
		return desc.NewUInt32(handle), nil

	case schema.Delete:
		return desc.Null(), s.model.DeleteContext(direct)

	case schema.Resend:
		wevt, _ := req.Params.Get(schema.KeyEventType)
		eventType, _ := wevt.TypeValue()
		s.model.RecordResend(eventType)
		return desc.Null(), nil

	default:
		return desc.Descriptor{}, fail(schema.CodeEventNotHandled, "event %s", req.Event)
	}
}
