package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/frame"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
)

var (
	ErrNotRequest = errors.New("session: frame is not a request")
	ErrNotReply   = errors.New("session: frame is not a reply")
)

// Request is one event sent to the driver.
type Request struct {
	MessageID    uint64
	Event        schema.Event
	Params       desc.Descriptor
	WantsReply   bool
	HighPriority bool
}

// Reply is the driver's answer to a request carrying the same message id.
type Reply struct {
	MessageID uint64
	Event     schema.Event
	Params    desc.Descriptor
}

// Result returns the reply's direct object, or Null when absent.
func (r Reply) Result() desc.Descriptor {
	v, _ := r.Params.Get(schema.KeyDirectObject)
	return v
}

// ErrorNumber returns the 'errn' code and 'errs' text. A missing 'errn' means
// success.
func (r Reply) ErrorNumber() (int32, string, error) {
	v, ok := r.Params.Get(schema.KeyErrorNumber)
	if !ok {
		return schema.CodeNoError, "", nil
	}
	code, err := v.SInt32()
	if err != nil {
		return 0, "", fmt.Errorf("session: reply errn: %w", err)
	}
	var msg string
	if s, ok := r.Params.Get(schema.KeyErrorString); ok {
		msg, _ = s.Text()
	}
	return code, msg, nil
}

// NewErrorReply builds a reply carrying an error number and message.
func NewErrorReply(req Request, code int32, msg string) Reply {
	fields := []desc.Field{{Key: schema.KeyErrorNumber, Value: desc.NewSInt32(code)}}
	if msg != "" {
		fields = append(fields, desc.Field{Key: schema.KeyErrorString, Value: desc.NewText(msg)})
	}
	return Reply{MessageID: req.MessageID, Event: req.Event, Params: desc.NewRecord(fields...)}
}

// NewResultReply builds a successful reply with result as its direct object.
func NewResultReply(req Request, result desc.Descriptor) Reply {
	return Reply{
		MessageID: req.MessageID,
		Event:     req.Event,
		Params:    desc.NewRecord(desc.Field{Key: schema.KeyDirectObject, Value: result}),
	}
}

// EncodeRequestFrame validates req against the event catalogue and frames it.
func EncodeRequestFrame(req Request, limits frame.Limits) ([]byte, error) {
	if err := schema.Validate(req.Event, req.Params); err != nil {
		return nil, err
	}
	var flags uint32
	if req.WantsReply {
		flags |= frame.FlagWantsReply
	}
	if req.HighPriority {
		flags |= frame.FlagHighPriority
	}
	return encodeFrame(frame.Header{
		MessageID:  req.MessageID,
		EventClass: uint32(req.Event.Class),
		EventID:    uint32(req.Event.ID),
		Flags:      flags,
	}, req.Params, limits)
}

func DecodeRequestFrame(f frame.Frame) (Request, error) {
	if f.Header.Has(frame.FlagIsReply) {
		return Request{}, ErrNotRequest
	}
	params, err := desc.Unmarshal(f.Payload)
	if err != nil {
		return Request{}, err
	}
	return Request{
		MessageID:    f.Header.MessageID,
		Event:        eventOf(f.Header),
		Params:       params,
		WantsReply:   f.Header.Has(frame.FlagWantsReply),
		HighPriority: f.Header.Has(frame.FlagHighPriority),
	}, nil
}

func EncodeReplyFrame(reply Reply, limits frame.Limits) ([]byte, error) {
	if reply.Params.Kind() != desc.KindRecord {
		return nil, fmt.Errorf("session: reply parameters must be a record, got %s", reply.Params.Tag())
	}
	return encodeFrame(frame.Header{
		MessageID:  reply.MessageID,
		EventClass: uint32(reply.Event.Class),
		EventID:    uint32(reply.Event.ID),
		Flags:      frame.FlagIsReply,
	}, reply.Params, limits)
}

func DecodeReplyFrame(f frame.Frame) (Reply, error) {
	if !f.Header.Has(frame.FlagIsReply) {
		return Reply{}, ErrNotReply
	}
	params, err := desc.Unmarshal(f.Payload)
	if err != nil {
		return Reply{}, err
	}
	if params.Kind() != desc.KindRecord {
		return Reply{}, fmt.Errorf("session: reply parameters must be a record, got %s", params.Tag())
	}
	return Reply{
		MessageID: f.Header.MessageID,
		Event:     eventOf(f.Header),
		Params:    params,
	}, nil
}

// ReadFrame reads one framed message from the stream.
func ReadFrame(r io.Reader, limits frame.Limits) (frame.Frame, error) {
	return frame.ReadFrame(r, limits)
}

func encodeFrame(h frame.Header, params desc.Descriptor, limits frame.Limits) ([]byte, error) {
	payload, err := desc.Marshal(params)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, frame.Frame{Header: h, Payload: payload}, limits); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func eventOf(h frame.Header) schema.Event {
	return schema.Event{Class: desc.TypeTag(h.EventClass), ID: desc.TypeTag(h.EventID)}
}
