// File: client/client.go
// Package client provides a websocket chat client implementing
// api.MessageClient over the protocol payloads.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Client owns one connection and runs two goroutines:
//   - readLoop decodes inbound frames into a bounded inbox drained by PollMessages
//   - writeLoop writes frames queued by SendMessage
//
// Close flushes queued frames before closing the connection.

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/protocol"
)

var _ api.MessageClient[protocol.Payload] = (*Client)(nil)

// Client is a websocket chat client.
type Client struct {
	cfg     Config
	conn    api.Conn
	log     zerolog.Logger
	metrics *control.Metrics
	in      *inbox
	out     chan []byte

	ctx        context.Context
	cancel     context.CancelFunc
	stop       chan struct{}
	writerDone chan struct{}
	wg         sync.WaitGroup

	// sendMu lets Close wait out in-flight SendMessage calls before it
	// discards whatever the writer left in out.
	sendMu sync.RWMutex
	sealed bool

	closeOnce sync.Once
	connOnce  sync.Once
	connErr   error

	errMu sync.Mutex
	err   error
}

// New wraps an established connection and starts the I/O loops.
func New(conn api.Conn, cfg *Config) (*Client, error) {
	if conn == nil {
		return nil, fmt.Errorf("new client: %w", api.ErrNotConnected)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = control.NewMetrics(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:        *cfg,
		conn:       conn,
		log:        cfg.Logger.With().Str("component", "client").Logger(),
		metrics:    metrics,
		in:         newInbox(cfg.InboxSize),
		out:        make(chan []byte, cfg.OutboxSize),
		ctx:        ctx,
		cancel:     cancel,
		stop:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()
	return c, nil
}

// PollMessages returns the payloads received since the previous call,
// oldest first. It never blocks.
func (c *Client) PollMessages() []protocol.Payload {
	return c.in.drain()
}

// SendMessage queues p for delivery. It blocks while the outbox is full.
// Payloads sent after Close or a transport failure are dropped.
func (c *Client) SendMessage(p protocol.Payload) {
	b, err := protocol.Encode(p)
	if err != nil {
		c.log.Error().Err(err).Msg("dropping unencodable payload")
		c.metrics.Dropped.Inc()
		return
	}

	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sealed {
		c.drop(p)
		return
	}

	select {
	case <-c.stop:
		c.drop(p)
		return
	case <-c.ctx.Done():
		c.drop(p)
		return
	default:
	}

	select {
	case c.out <- b:
	case <-c.stop:
		c.drop(p)
	case <-c.ctx.Done():
		c.drop(p)
	}
}

func (c *Client) drop(p protocol.Payload) {
	c.log.Warn().Str("type", p.Type()).Msg("client closed, dropping outbound payload")
	c.metrics.Dropped.Inc()
}

// Done is closed once the client has stopped, by Close or by a failure.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Err returns the failure that stopped the client, or nil.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close flushes queued frames, closes the connection and waits for the
// I/O loops. Frames the writer could not deliver are counted as dropped.
// It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.sendMu.Lock()
		c.sealed = true
		c.sendMu.Unlock()
		<-c.writerDone
		c.cancel()
		c.discardQueued()
		c.closeConn()
	})
	c.wg.Wait()
	if c.connErr != nil {
		return fmt.Errorf("close: %w", c.connErr)
	}
	return nil
}

func (c *Client) discardQueued() {
	n := 0
	for {
		select {
		case <-c.out:
			n++
			c.metrics.Dropped.Inc()
		default:
			if n > 0 {
				c.log.Warn().Int("frames", n).Msg("client closed, discarding undelivered frames")
			}
			return
		}
	}
}

func (c *Client) closeConn() {
	c.connOnce.Do(func() {
		c.connErr = c.conn.Close()
	})
}

func (c *Client) fail(err error) {
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()
	c.cancel()
	c.closeConn()
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info().Err(err).Msg("server closed connection")
				c.fail(fmt.Errorf("%w: %v", api.ErrClientClosed, err))
				return
			}
			c.log.Warn().Err(err).Msg("read failed")
			c.fail(fmt.Errorf("read: %w", err))
			return
		}

		p, err := protocol.Decode(data)
		if err != nil {
			c.metrics.DecodeErrors.Inc()
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("skipping undecodable frame")
			continue
		}
		c.metrics.Received.Inc()
		if c.in.push(p) {
			c.metrics.Dropped.Inc()
			c.log.Debug().Int("limit", c.cfg.InboxSize).Msg("inbox full, evicted oldest payload")
		}
	}
}

func (c *Client) writeLoop() {
	defer c.wg.Done()
	defer close(c.writerDone)
	for {
		select {
		case b := <-c.out:
			if !c.write(b) {
				return
			}
		case <-c.stop:
			for {
				select {
				case b := <-c.out:
					if !c.write(b) {
						return
					}
				default:
					return
				}
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) write(b []byte) bool {
	if c.cfg.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
			c.fail(fmt.Errorf("set write deadline: %w", err))
			return false
		}
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			c.log.Warn().Err(err).Msg("write failed")
		}
		c.fail(fmt.Errorf("write: %w", err))
		return false
	}
	c.metrics.Sent.Inc()
	return true
}
