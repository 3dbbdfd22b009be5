package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/frame"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/protocol/session"
	"github.com/danmuck/tabletctl/internal/routing"
	"github.com/danmuck/tabletctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// servePeer accepts connections on a loopback listener and hands each
// decoded request to handle. A nil reply writes nothing back.
func servePeer(t *testing.T, handle func(session.Request) *session.Reply) (Address, <-chan session.Request) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	seen := make(chan session.Request, 8)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				fr, err := session.ReadFrame(bufio.NewReader(conn), frame.DefaultLimits())
				if err != nil {
					return
				}
				req, err := session.DecodeRequestFrame(fr)
				if err != nil {
					return
				}
				seen <- req
				reply := handle(req)
				if reply == nil {
					// hold the connection open until the client gives up
					_, _ = conn.Read(make([]byte, 1))
					return
				}
				raw, err := session.EncodeReplyFrame(*reply, frame.DefaultLimits())
				if err != nil {
					return
				}
				_, _ = conn.Write(raw)
			}(conn)
		}
	}()
	return Address{Network: "tcp", Path: ln.Addr().String(), BundleID: "com.example.tabletdriver"}, seen
}

func deleteEvent(t *testing.T, target Address) Event {
	t.Helper()
	rt, err := routing.Context(0x1001)
	require.NoError(t, err)
	return NewEvent(schema.Delete, target, desc.Field{Key: schema.KeyDirectObject, Value: rt})
}

func TestResolveTimeout(t *testing.T) {
	testlog.Start(t)
	def := 15 * time.Second
	assert.Equal(t, def, ResolveTimeout(0, def))
	assert.Equal(t, def, ResolveTimeout(-1, def))
	assert.Equal(t, def, ResolveTimeout(-time.Hour, def))
	assert.Equal(t, 250*time.Millisecond, ResolveTimeout(250*time.Millisecond, def))
	assert.Equal(t, NoTimeout, ResolveTimeout(NoTimeout, def))
}

func TestDeadlineForNoTimeoutPassesThrough(t *testing.T) {
	testlog.Start(t)
	assert.True(t, deadlineFor(context.Background(), NoTimeout).IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	want, _ := ctx.Deadline()
	assert.Equal(t, want, deadlineFor(ctx, NoTimeout))
	assert.Equal(t, want, deadlineFor(ctx, time.Hour))
	assert.True(t, deadlineFor(ctx, time.Millisecond).Before(want))
}

func TestSendExpectingReplyReturnsDirectObject(t *testing.T) {
	testlog.Start(t)
	target, seen := servePeer(t, func(req session.Request) *session.Reply {
		reply := session.NewResultReply(req, desc.NewUInt32(3))
		return &reply
	})
	rt, err := routing.Tablet(1)
	require.NoError(t, err)
	ev := NewEvent(schema.GetData, target,
		desc.Field{Key: schema.KeyDirectObject, Value: rt},
		desc.Field{Key: schema.KeyRequestedType, Value: desc.NewType(desc.TypeUInt32)},
	)

	s := NewStream(session.Config{})
	got, err := s.SendExpectingReply(context.Background(), ev, PriorityHigh, time.Second)
	require.NoError(t, err)
	v, err := got.UInt32()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)

	req := <-seen
	assert.True(t, req.WantsReply)
	assert.True(t, req.HighPriority)
	addr, ok := req.Params.Get(schema.KeyAddress)
	require.True(t, ok)
	bundle, err := addr.Text()
	require.NoError(t, err)
	assert.Equal(t, target.BundleID, bundle)
}

func TestSilentPeerTimesOut(t *testing.T) {
	testlog.Start(t)
	target, _ := servePeer(t, func(session.Request) *session.Reply { return nil })

	s := NewStream(session.Config{})
	start := time.Now()
	_, err := s.SendExpectingReply(context.Background(), deleteEvent(t, target), PriorityNormal, 50*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start).Seconds(), 5.0)
}

func TestContextDeadlineCapsNoTimeout(t *testing.T) {
	testlog.Start(t)
	target, _ := servePeer(t, func(session.Request) *session.Reply { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewStream(session.Config{}).SendExpectingReply(ctx, deleteEvent(t, target), PriorityNormal, NoTimeout)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestCancelInterruptsNoTimeoutRead(t *testing.T) {
	testlog.Start(t)
	target, seen := servePeer(t, func(session.Request) *session.Reply { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-seen
		cancel()
	}()

	start := time.Now()
	_, err := NewStream(session.Config{}).SendExpectingReply(ctx, deleteEvent(t, target), PriorityNormal, NoTimeout)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start).Seconds(), 2.0)
	assert.Equal(t, "cancelled", outcomeOf(err))
}

func TestFormatTimeout(t *testing.T) {
	assert.Equal(t, "none", formatTimeout(NoTimeout))
	assert.Equal(t, "15s", formatTimeout(15*time.Second))
}

func TestRemoteErrorMapsToSentinel(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		code int32
		want error
	}{
		{schema.CodeInvalidContext, routing.ErrInvalidContext},
		{schema.CodeNoSuchObject, routing.ErrInvalidIndex},
		{schema.CodeWrongDataType, desc.ErrTypeMismatch},
		{schema.CodeNotModifiable, ErrNotModifiable},
		{schema.CodeEventNotHandled, ErrEventNotHandled},
	}
	for _, tc := range cases {
		code := tc.code
		target, _ := servePeer(t, func(req session.Request) *session.Reply {
			reply := session.NewErrorReply(req, code, "nope")
			return &reply
		})
		_, err := NewStream(session.Config{}).SendExpectingReply(context.Background(), deleteEvent(t, target), PriorityNormal, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, tc.want, "code %d", code)
		assert.NotErrorIs(t, err, ErrTransport)

		var remote *RemoteError
		require.True(t, errors.As(err, &remote))
		assert.Equal(t, code, remote.Code)
		assert.Equal(t, "nope", remote.Message)
	}
}

func TestSendReportsRemoteStatusWithoutError(t *testing.T) {
	testlog.Start(t)
	target, _ := servePeer(t, func(req session.Request) *session.Reply {
		reply := session.NewErrorReply(req, schema.CodeNotModifiable, "")
		return &reply
	})
	code, err := NewStream(session.Config{}).Send(context.Background(), deleteEvent(t, target), PriorityNormal, time.Second)
	require.NoError(t, err)
	assert.Equal(t, schema.CodeNotModifiable, code)
}

func TestNoReplyEventIsNotRead(t *testing.T) {
	testlog.Start(t)
	target, seen := servePeer(t, func(session.Request) *session.Reply { return nil })
	ev := deleteEvent(t, target)
	ev.NoReply = true

	code, err := NewStream(session.Config{}).Send(context.Background(), ev, PriorityNormal, NoTimeout)
	require.NoError(t, err)
	assert.Equal(t, schema.CodeNoError, code)
	req := <-seen
	assert.False(t, req.WantsReply)

	_, err = NewStream(session.Config{}).SendExpectingReply(context.Background(), ev, PriorityNormal, time.Second)
	assert.Error(t, err)
}

func TestReplyMessageIDMismatch(t *testing.T) {
	testlog.Start(t)
	target, _ := servePeer(t, func(req session.Request) *session.Reply {
		req.MessageID++
		reply := session.NewResultReply(req, desc.Null())
		return &reply
	})
	_, err := NewStream(session.Config{}).SendExpectingReply(context.Background(), deleteEvent(t, target), PriorityNormal, time.Second)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrReplyMismatch)
}

func TestInvalidRequestFailsBeforeDial(t *testing.T) {
	testlog.Start(t)
	// nothing listens here; validation must fail first
	target := Address{Network: "tcp", Path: "127.0.0.1:1", BundleID: "com.example.tabletdriver"}
	ev := NewEvent(schema.Delete, target)

	_, err := NewStream(session.Config{}).SendExpectingReply(context.Background(), ev, PriorityNormal, time.Second)
	var ve schema.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, schema.KeyDirectObject, ve.Key)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestDialFailureIsTransportError(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	target := Address{Network: "tcp", Path: ln.Addr().String(), BundleID: "com.example.tabletdriver"}
	require.NoError(t, ln.Close())

	_, err = NewStream(session.Config{}).SendExpectingReply(context.Background(), deleteEvent(t, target), PriorityNormal, time.Second)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestAddressValidate(t *testing.T) {
	testlog.Start(t)
	assert.NoError(t, Address{Network: "unix", Path: "/tmp/wacom.sock", BundleID: "com.example.tabletdriver"}.Validate())
	assert.ErrorIs(t, Address{Network: "udp", Path: "x", BundleID: "b"}.Validate(), ErrInvalidAddress)
	assert.ErrorIs(t, Address{Network: "tcp", BundleID: "b"}.Validate(), ErrInvalidAddress)
	assert.ErrorIs(t, Address{Network: "tcp", Path: "x"}.Validate(), ErrInvalidAddress)
}

func TestParsePriority(t *testing.T) {
	testlog.Start(t)
	p, err := ParsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)
	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)
	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}
