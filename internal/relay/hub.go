// Package relay pushes server-sent events to connected browser clients.
package relay

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	EventConnection    = "connection"
	EventFlightUpdate  = "flight_update"
	EventBookingUpdate = "booking_update"
)

var ErrClosed = errors.New("relay is shut down")

// Publisher fans a frame out to every relay instance, including this one.
type Publisher interface {
	Publish(ctx context.Context, frame []byte) error
}

// Client is one open event stream.
type Client struct {
	ID        string
	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Frames yields encoded "data: ...\n\n" frames in send order.
func (c *Client) Frames() <-chan []byte { return c.frames }

// Done is closed when the client is unregistered, replaced or the hub shuts down.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	closed     bool
	bufferSize int
	publisher  Publisher
	now        func() time.Time
	log        *zap.Logger
}

type Option func(*Hub)

func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(h *Hub) { h.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

func NewHub(log *zap.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		bufferSize: 32,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register opens a stream for clientID and queues the handshake event.
// An existing stream with the same id is closed and replaced.
func (h *Hub) Register(clientID string) (*Client, error) {
	c := &Client{
		ID:     clientID,
		frames: make(chan []byte, h.bufferSize),
		done:   make(chan struct{}),
	}
	handshake, err := encodeFrame(map[string]any{"type": EventConnection, "message": "Connected to SSE"})
	if err != nil {
		return nil, err
	}
	c.frames <- handshake

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if prev, ok := h.clients[clientID]; ok {
		prev.close()
	}
	h.clients[clientID] = c
	return c, nil
}

// Unregister removes c if it is still the registered stream for its id.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
	c.close()
}

// SendTo delivers payload to one locally connected client. It reports false when
// the client is not connected to this instance.
func (h *Hub) SendTo(clientID string, payload any) (bool, error) {
	frame, err := encodeFrame(payload)
	if err != nil {
		return false, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[clientID]
	if !ok {
		return false, nil
	}
	h.deliver(c, frame)
	return true, nil
}

// Broadcast delivers payload to every client. With a publisher configured the frame
// goes through it so clients of other instances receive it too.
func (h *Hub) Broadcast(ctx context.Context, payload any) error {
	frame, err := encodeFrame(payload)
	if err != nil {
		return err
	}
	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, frame); err != nil {
			h.DeliverLocal(frame)
			return err
		}
		return nil
	}
	h.DeliverLocal(frame)
	return nil
}

// DeliverLocal writes an already encoded frame to every client of this instance.
func (h *Hub) DeliverLocal(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.deliver(c, frame)
	}
}

func (h *Hub) SendFlightUpdate(ctx context.Context, flightID string, update any) error {
	return h.Broadcast(ctx, map[string]any{
		"type":      EventFlightUpdate,
		"flightId":  flightID,
		"update":    update,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) SendBookingUpdate(ctx context.Context, bookingID string, update any) error {
	return h.Broadcast(ctx, map[string]any{
		"type":      EventBookingUpdate,
		"bookingId": bookingID,
		"update":    update,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every stream and rejects new registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// deliver never blocks: a client whose buffer is full loses the frame.
func (h *Hub) deliver(c *Client, frame []byte) {
	select {
	case c.frames <- frame:
	default:
		h.log.Warn("relay buffer full, dropping frame", zap.String("client_id", c.ID))
	}
}

func encodeFrame(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 8)
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}
