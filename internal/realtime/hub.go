package realtime

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bloodlink/bloodlink/pkg/logger"
)

// Message is a JSON payload delivered to stream subscribers.
type Message struct {
	Stream string `json:"stream"`
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
}

// Hub fans table-change messages out to websocket subscribers. Each
// connection carries the authenticated user id and a set of subscribed
// streams, so broadcasts can target everyone on a stream or a single user.
type Hub struct {
	mu       sync.RWMutex
	streams  map[string]map[*conn]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		streams: make(map[string]map[*conn]struct{}),
		log:     logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOriginOrLoopback,
		},
	}
}

// Serve upgrades the request and runs the connection until the client goes
// away. The allowed set limits which streams the client may subscribe to;
// nil means no restriction.
func (h *Hub) Serve(userID string, streams []string, allowed map[string]struct{}, w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &conn{
		hub:     h,
		socket:  socket,
		userID:  userID,
		subbed:  make(map[string]struct{}),
		send:    make(chan Message, sendQueueSize),
		done:    make(chan struct{}),
		allowed: allowed,
	}
	h.subscribe(c, streams)

	go c.writePump()
	c.readPump()
}

// BroadcastStream sends the message to every subscriber of the stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	h.deliver(stream, message, func(*conn) bool { return true })
}

// BroadcastToUser sends the message to the user's connections on the stream.
func (h *Hub) BroadcastToUser(stream, userID string, message Message) {
	if userID == "" {
		return
	}
	h.deliver(stream, message, func(c *conn) bool { return c.userID == userID })
}

// BroadcastToUsers sends the message to each listed user on the stream.
func (h *Hub) BroadcastToUsers(stream string, userIDs []string, message Message) {
	for _, userID := range userIDs {
		h.BroadcastToUser(stream, userID, message)
	}
}

func (h *Hub) deliver(stream string, message Message, match func(*conn) bool) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}
	message.Stream = stream

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.streams[stream] {
		if !match(c) {
			continue
		}
		select {
		case c.send <- message:
		case <-c.done:
		default:
			// Slow consumer; closing is kinder than blocking every broadcast.
			h.log.Warn("closing backpressured connection", zap.String("user_id", c.userID))
			go c.close()
		}
	}
}

func (h *Hub) subscribe(c *conn, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range streams {
		stream = normalizeStream(stream)
		if stream == "" {
			continue
		}
		if !c.mayJoin(stream) {
			h.log.Debug("subscription refused",
				zap.String("stream", stream), zap.String("user_id", c.userID))
			continue
		}
		if h.streams[stream] == nil {
			h.streams[stream] = make(map[*conn]struct{})
		}
		h.streams[stream][c] = struct{}{}
		c.subbed[stream] = struct{}{}
	}
}

func (h *Hub) unsubscribe(c *conn, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range streams {
		h.detachLocked(c, normalizeStream(stream))
	}
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stream := range c.subbed {
		h.detachLocked(c, stream)
	}
}

func (h *Hub) detachLocked(c *conn, stream string) {
	if stream == "" {
		return
	}
	if subs := h.streams[stream]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.streams, stream)
		}
	}
	delete(c.subbed, stream)
}

func sameOriginOrLoopback(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originHost := bareHost(origin)
	return originHost == bareHost(r.Host) || isLoopback(originHost)
}

func bareHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil {
			raw = u.Host
		}
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		return host
	}
	return raw
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}
