package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uhyunpark/swapchecker/pkg/crypto"
)

const (
	channelSwaps = "swaps"

	wsPongWait     = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteWait    = 10 * time.Second
	wsSendBuffer   = 256
	wsMaxChannels  = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer on REST; the feed is read-only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// normalizeChannel accepts "swaps" or "swaps:<address>" and returns the
// canonical name, with the address in checksummed form
func normalizeChannel(ch string) (string, error) {
	if ch == channelSwaps {
		return ch, nil
	}
	raw, ok := strings.CutPrefix(ch, channelSwaps+":")
	if !ok {
		return "", fmt.Errorf("unknown channel %q", ch)
	}
	addr, err := crypto.ParseWallet(raw)
	if err != nil {
		return "", err
	}
	return UserChannel(addr), nil
}

// Hub tracks feed subscribers and fans swap events out to them
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}

	join  chan *Subscriber
	leave chan *Subscriber
	done  chan struct{} // closed when Run returns

	logger *zap.SugaredLogger
}

// NewHub creates an idle hub; call Run to start accepting subscribers
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		join:        make(chan *Subscriber),
		leave:       make(chan *Subscriber),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run owns subscriber membership until ctx is done, then disconnects everyone
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case sub := <-h.join:
			h.mu.Lock()
			h.subscribers[sub] = struct{}{}
			n := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Infow("ws_connected", "client", sub.id, "total", n)

		case sub := <-h.leave:
			h.mu.Lock()
			h.drop(sub)
			n := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Infow("ws_disconnected", "client", sub.id, "total", n)

		case <-ctx.Done():
			h.mu.Lock()
			for sub := range h.subscribers {
				h.drop(sub)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop removes sub and closes its outbox; caller holds h.mu
func (h *Hub) drop(sub *Subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.outbox)
}

// BroadcastToChannel delivers data to every subscriber of channel.
// Slow subscribers with a full outbox miss the event.
func (h *Hub) BroadcastToChannel(channel string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Warnw("ws_marshal_failed", "channel", channel, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !sub.Follows(channel) {
			continue
		}
		select {
		case sub.outbox <- payload:
		default:
			h.logger.Infow("ws_event_dropped", "client", sub.id, "channel", channel)
		}
	}
}

// Subscribers counts subscribers following a channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for sub := range h.subscribers {
		if sub.Follows(channel) {
			n++
		}
	}
	return n
}

// Subscriber is one websocket connection and the channels it follows
type Subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	outbox chan []byte
	id     string

	mu       sync.RWMutex
	channels map[string]struct{}
}

// Follows reports whether the subscriber listens on channel
func (s *Subscriber) Follows(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.channels[channel]
	return ok
}

// apply runs one subscribe/unsubscribe request. Invalid channel names are
// skipped and reported; the rest of the request still applies.
func (s *Subscriber) apply(req WSSubscribeRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, raw := range req.Channels {
		ch, err := normalizeChannel(raw)
		if err != nil {
			s.hub.logger.Infow("ws_bad_channel", "client", s.id, "channel", raw, "err", err)
			continue
		}
		switch req.Op {
		case "subscribe":
			if len(s.channels) >= wsMaxChannels {
				s.hub.logger.Infow("ws_channel_limit", "client", s.id, "limit", wsMaxChannels)
				return
			}
			s.channels[ch] = struct{}{}
		case "unsubscribe":
			delete(s.channels, ch)
		}
	}
}

// listen reads subscription requests until the connection fails
func (s *Subscriber) listen() {
	defer func() {
		select {
		case s.hub.leave <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var req WSSubscribeRequest
		if err := s.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.Infow("ws_read_error", "client", s.id, "err", err)
			}
			return
		}
		if req.Op != "subscribe" && req.Op != "unsubscribe" {
			s.hub.logger.Infow("ws_unknown_op", "client", s.id, "op", req.Op)
			continue
		}
		s.apply(req)
	}
}

// deliver writes queued events and keepalive pings to the connection
func (s *Subscriber) deliver() {
	ping := time.NewTicker(wsPingInterval)
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWebSocket upgrades the request and attaches a subscriber to the hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Infow("ws_upgrade_failed", "err", err)
		return
	}

	sub := &Subscriber{
		hub:      s.hub,
		conn:     conn,
		outbox:   make(chan []byte, wsSendBuffer),
		id:       conn.RemoteAddr().String(),
		channels: make(map[string]struct{}),
	}

	select {
	case s.hub.join <- sub:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go sub.deliver()
	go sub.listen()
}
