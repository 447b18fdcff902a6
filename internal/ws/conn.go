package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"signal-relay/internal/signaling"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 20 * time.Second
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrClosed         = errors.New("connection closed")
)

// Conn is the transport side of a signaling.Peer: a websocket with a
// buffered outbound queue drained by WriteLoop.
type Conn struct {
	ws    *websocket.Conn
	codec Codec
	out   chan signaling.Frame

	done      chan struct{}
	closeOnce sync.Once
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps an accepted websocket; buffer bounds the outbound queue
func NewConn(ws *websocket.Conn, codec Codec, buffer int) *Conn {
	return &Conn{
		ws:    ws,
		codec: codec,
		out:   make(chan signaling.Frame, buffer),
		done:  make(chan struct{}),
	}
}

// Send queues f without blocking
func (c *Conn) Send(f signaling.Frame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.out <- f:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends queued frames + periodic pings
// Exits when ctx is cancelled, the conn is closed or a write fails
func (c *Conn) WriteLoop(ctx context.Context) error {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()

	for {
		select {
		case f := <-c.out:
			b, err := c.codec.Encode(f)
			if err != nil {
				continue
			}
			if err := c.write(ctx, b); err != nil {
				return err
			}
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.ws.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		case <-c.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Conn) write(ctx context.Context, b []byte) error {
	wctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.ws.Write(wctx, c.codec.MessageType(), b)
}

// Close closes the WS connection normally; later calls are no-ops
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close(websocket.StatusNormalClosure, "bye")
	})
	return err
}
