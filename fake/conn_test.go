package fake

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnRecordsWrites(t *testing.T) {
	c := NewConn()
	buf := []byte("hello")
	require.NoError(t, c.WriteMessage(1, buf))
	buf[0] = 'j'

	sent := c.GetSentData()
	require.Len(t, sent, 1)
	assert.Equal(t, 1, sent[0].Type)
	assert.Equal(t, "hello", string(sent[0].Data))

	c.ClearSentData()
	assert.Empty(t, c.GetSentData())
}

func TestConnReadReturnsQueuedFrames(t *testing.T) {
	c := NewConn()
	c.AddRecvData(1, []byte("a"))
	c.AddRecvData(1, []byte("b"))

	_, p, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "a", string(p))

	_, p, err = c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "b", string(p))
}

func TestConnReadUnblocksOnClose(t *testing.T) {
	c := NewConn()
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.ReadMessage()
		errCh <- err
	}()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.True(t, c.Closed())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrConnClosed)
	case <-time.After(time.Second):
		t.Fatal("ReadMessage did not return after Close")
	}

	assert.ErrorIs(t, c.WriteMessage(1, nil), ErrConnClosed)
}

func TestConnInjectedErrors(t *testing.T) {
	c := NewConn()
	boom := errors.New("boom")

	c.SetSendError(boom)
	assert.ErrorIs(t, c.WriteMessage(1, []byte("x")), boom)

	c.SetRecvError(boom)
	_, _, err := c.ReadMessage()
	assert.ErrorIs(t, err, boom)

	c.SetCloseError(boom)
	assert.ErrorIs(t, c.Close(), boom)
	assert.True(t, c.Closed())

	_, _, err = c.ReadMessage()
	assert.ErrorIs(t, err, ErrConnClosed)
}

func TestConnWriteDeadline(t *testing.T) {
	c := NewConn()
	d := time.Now().Add(time.Second)
	require.NoError(t, c.SetWriteDeadline(d))
	assert.True(t, d.Equal(c.WriteDeadline()))
}
