package server

import (
	"bytes"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/slicer/internal/core/events/bus"
	"github.com/zeusync/slicer/internal/core/level"
	"github.com/zeusync/slicer/internal/core/observability/log"
	"github.com/zeusync/slicer/pkg/generic"
)

var fingerprintBuffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

// FrameType tells clients how to read a Frame.
type FrameType string

const (
	FrameSnapshot FrameType = "snapshot"
	FrameEvent    FrameType = "event"
)

// Frame is one message sent to clients.
type Frame struct {
	Type     FrameType       `json:"type"`
	Snapshot *level.Snapshot `json:"snapshot,omitempty"`
	Event    string          `json:"event,omitempty"`
	Data     any             `json:"data,omitempty"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans frames out to the connected clients. Slow clients whose send
// queue is full are disconnected rather than stalling the sender.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	latest      []byte
	fingerprint uint64

	bufferSize int
	logger     log.Log

	broadcasts uint64 // atomic
	unchanged  uint64 // atomic
	dropped    uint64 // atomic
}

func newHub(bufferSize int, logger log.Log) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Latest returns the last snapshot frame sent.
func (h *Hub) Latest() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.latest != nil
}

// Broadcast encodes snap and sends it to every client. The tick counter is
// left out of the fingerprint, so a level at rest is not resent every tick.
func (h *Hub) Broadcast(snap level.Snapshot) (bool, error) {
	fp := snap
	fp.Tick = 0
	buf := fingerprintBuffers.Get()
	err := json.NewEncoder(buf).Encode(fp)
	sum := xxhash.Sum64(buf.Bytes())
	fingerprintBuffers.Put(buf)
	if err != nil {
		return false, errors.Wrap(err, "encode snapshot")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest != nil && sum == h.fingerprint {
		atomic.AddUint64(&h.unchanged, 1)
		return false, nil
	}

	data, err := json.Marshal(Frame{Type: FrameSnapshot, Snapshot: &snap})
	if err != nil {
		return false, errors.Wrap(err, "encode frame")
	}
	h.fingerprint = sum
	h.latest = data
	atomic.AddUint64(&h.broadcasts, 1)
	h.fanoutLocked(data)
	return true, nil
}

// Event forwards a bus event to every client. It has the bus.EventHandler
// signature so it can be subscribed directly.
func (h *Hub) Event(e bus.Event) error {
	data, err := json.Marshal(Frame{Type: FrameEvent, Event: e.Type(), Data: e.Data()})
	if err != nil {
		return errors.Wrapf(err, "encode event %s", e.Type())
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fanoutLocked(data)
	return nil
}

// Close disconnects every client. Clients added afterwards are closed
// straight away.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, h.bufferSize),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.close()
		return c
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) fanoutLocked(data []byte) {
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			atomic.AddUint64(&h.dropped, 1)
			h.logger.Warn("Dropping slow client", log.String("client_id", c.id.String()))
			delete(h.clients, c)
			c.close()
		}
	}
}

func (h *Hub) stats() Stats {
	return Stats{
		Clients:    h.Len(),
		Broadcasts: atomic.LoadUint64(&h.broadcasts),
		Unchanged:  atomic.LoadUint64(&h.unchanged),
		Dropped:    atomic.LoadUint64(&h.dropped),
	}
}
