package client

import (
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/fake"
	"github.com/momentics/hioload-chat/protocol"
)

const waitFor = 2 * time.Second

func newTestClient(t *testing.T, mutate func(*Config)) (*Client, *fake.Conn, *control.Metrics) {
	t.Helper()
	conn := fake.NewConn()
	cfg := DefaultConfig()
	cfg.Metrics = control.NewMetrics(nil)
	if mutate != nil {
		mutate(cfg)
	}
	c, err := New(conn, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, conn, cfg.Metrics
}

func encode(t *testing.T, p protocol.Payload) []byte {
	t.Helper()
	b, err := protocol.Encode(p)
	require.NoError(t, err)
	return b
}

func TestNewRequiresConn(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, api.ErrNotConnected)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.InboxSize = 0
	err := cfg.Validate()
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Context["InboxSize"])

	cfg = DefaultConfig()
	cfg.OutboxSize = -1
	assert.ErrorIs(t, cfg.Validate(), api.ErrInvalidArgument)

	cfg = DefaultConfig()
	cfg.WriteTimeout = -time.Second
	assert.ErrorIs(t, cfg.Validate(), api.ErrInvalidArgument)

	_, err = New(fake.NewConn(), &Config{})
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestConfigEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "http://chat.example:8080"
	got, err := cfg.endpoint()
	require.NoError(t, err)
	assert.Equal(t, "ws://chat.example:8080/ws", got)

	cfg.Addr = "wss://chat.example"
	cfg.Path = PathRegister
	got, err = cfg.endpoint()
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example/register", got)

	cfg.Addr = "ftp://chat.example"
	_, err = cfg.endpoint()
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestPollMessagesDrainsInArrivalOrder(t *testing.T) {
	c, conn, metrics := newTestClient(t, nil)

	first := protocol.MsgBroadcast{MessageID: "m1", Message: "hi", Time: 1}
	second := protocol.WhoAmI{ID: "u1", Username: "ann"}
	conn.AddRecvData(websocket.TextMessage, encode(t, first))
	conn.AddRecvData(websocket.TextMessage, encode(t, second))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Received) == 2
	}, waitFor, time.Millisecond)

	assert.Equal(t, []protocol.Payload{first, second}, c.PollMessages())
	assert.Empty(t, c.PollMessages())
}

func TestUndecodableFramesAreSkipped(t *testing.T) {
	c, conn, metrics := newTestClient(t, nil)

	conn.AddRecvData(websocket.TextMessage, []byte(`{broken`))
	conn.AddRecvData(websocket.TextMessage, []byte(`{"type":"chnl_create"}`))
	conn.AddRecvData(websocket.TextMessage, encode(t, protocol.GenericError{Error: "BadFormat"}))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Received) == 1
	}, waitFor, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.DecodeErrors))
	assert.Equal(t, []protocol.Payload{protocol.GenericError{Error: "BadFormat"}}, c.PollMessages())
	assert.NoError(t, c.Err())
}

func TestInboxEvictsOldest(t *testing.T) {
	c, conn, metrics := newTestClient(t, func(cfg *Config) { cfg.InboxSize = 2 })

	for _, id := range []string{"m1", "m2", "m3"} {
		conn.AddRecvData(websocket.TextMessage, encode(t, protocol.MsgBroadcast{MessageID: id}))
	}
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Received) == 3
	}, waitFor, time.Millisecond)

	got := c.PollMessages()
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].(protocol.MsgBroadcast).MessageID)
	assert.Equal(t, "m3", got[1].(protocol.MsgBroadcast).MessageID)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Dropped))
}

func TestSendMessageWritesTextFrames(t *testing.T) {
	c, conn, metrics := newTestClient(t, nil)

	c.SendMessage(protocol.MsgSend{Message: "hello", Nonce: "n1"})

	require.Eventually(t, func() bool {
		return len(conn.GetSentData()) == 1
	}, waitFor, time.Millisecond)

	frame := conn.GetSentData()[0]
	assert.Equal(t, websocket.TextMessage, frame.Type)
	assert.JSONEq(t, `{"type":"msg_send","msg":"hello","n":"n1"}`, string(frame.Data))
	assert.False(t, conn.WriteDeadline().IsZero())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Sent) == 1
	}, waitFor, time.Millisecond)
}

func TestCloseFlushesQueuedFrames(t *testing.T) {
	c, conn, _ := newTestClient(t, func(cfg *Config) { cfg.WriteTimeout = 0 })

	for i := 0; i < 10; i++ {
		c.SendMessage(protocol.MsgSend{Message: "queued"})
	}
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Len(t, conn.GetSentData(), 10)
	assert.True(t, conn.Closed())
	assert.True(t, conn.WriteDeadline().IsZero())
	assert.NoError(t, c.Err())

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	c, conn, metrics := newTestClient(t, nil)
	require.NoError(t, c.Close())

	c.SendMessage(protocol.MsgSend{Message: "late"})
	assert.Empty(t, conn.GetSentData())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Dropped))
}

func TestReadFailureStopsClient(t *testing.T) {
	c, conn, _ := newTestClient(t, nil)
	boom := errors.New("connection reset")
	conn.SetRecvError(boom)

	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("client did not stop after read failure")
	}
	assert.ErrorIs(t, c.Err(), boom)
	assert.True(t, conn.Closed())
}

func TestServerCloseIsReportedAsClosed(t *testing.T) {
	c, conn, _ := newTestClient(t, nil)
	conn.SetRecvError(&websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "bye"})

	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("client did not stop after server close")
	}
	assert.ErrorIs(t, c.Err(), api.ErrClientClosed)
}

func TestWriteFailureStopsClient(t *testing.T) {
	c, conn, _ := newTestClient(t, nil)
	boom := errors.New("broken pipe")
	conn.SetSendError(boom)

	c.SendMessage(protocol.WhoAmI{Nonce: "w1"})

	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("client did not stop after write failure")
	}
	assert.ErrorIs(t, c.Err(), boom)
}

func TestCloseReportsConnError(t *testing.T) {
	c, conn, _ := newTestClient(t, nil)
	boom := errors.New("close failed")
	conn.SetCloseError(boom)

	errc := make(chan error, 1)
	go func() { errc <- c.Close() }()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, boom)
	case <-time.After(waitFor):
		t.Fatal("Close did not return when the connection failed to close")
	}
	assert.True(t, conn.Closed())
	assert.ErrorIs(t, c.Close(), boom)
}

// stallingConn blocks each write until the test releases it.
type stallingConn struct {
	*fake.Conn
	entered chan struct{}
	release chan error
}

func (s *stallingConn) WriteMessage(int, []byte) error {
	s.entered <- struct{}{}
	return <-s.release
}

func TestCloseDiscardsUndeliveredFrames(t *testing.T) {
	conn := &stallingConn{
		Conn:    fake.NewConn(),
		entered: make(chan struct{}, 1),
		release: make(chan error, 1),
	}
	cfg := DefaultConfig()
	cfg.Metrics = control.NewMetrics(nil)
	c, err := New(conn, cfg)
	require.NoError(t, err)

	c.SendMessage(protocol.MsgSend{Message: "first"})
	select {
	case <-conn.entered:
	case <-time.After(waitFor):
		t.Fatal("writer never picked up the first frame")
	}

	// Queued behind the stalled write, never delivered.
	c.SendMessage(protocol.MsgSend{Message: "second"})
	c.SendMessage(protocol.MsgSend{Message: "third"})

	boom := errors.New("broken pipe")
	conn.release <- boom
	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("client did not stop after write failure")
	}

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Err(), boom)
	assert.Equal(t, float64(2), testutil.ToFloat64(cfg.Metrics.Dropped))
	assert.Equal(t, float64(0), testutil.ToFloat64(cfg.Metrics.Sent))
}
