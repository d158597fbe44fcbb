package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // control payloads only, 1 MiB is plenty

	sendQueueSize = 64
)

// conn is one websocket client. Inbound frames are control messages that
// adjust the subscription set; everything outbound flows through send.
type conn struct {
	hub     *Hub
	socket  *websocket.Conn
	userID  string
	subbed  map[string]struct{}
	send    chan Message
	done    chan struct{}
	once    sync.Once
	allowed map[string]struct{}
}

type controlFrame struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

func (c *conn) mayJoin(stream string) bool {
	if len(c.allowed) == 0 {
		return true
	}
	_, ok := c.allowed[stream]
	return ok
}

func (c *conn) readPump() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var frame controlFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.hub.log.Debug("bad control frame", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}

		switch strings.ToLower(strings.TrimSpace(frame.Action)) {
		case "subscribe":
			c.hub.subscribe(c, frame.Streams)
		case "unsubscribe":
			c.hub.unsubscribe(c, frame.Streams)
		case "ping":
			select {
			case c.send <- Message{Event: "pong"}:
			case <-c.done:
				return
			}
		default:
			c.hub.log.Debug("unknown control action",
				zap.String("action", frame.Action), zap.String("user_id", c.userID))
		}
	}
}

func (c *conn) writePump() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *conn) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		_ = c.socket.Close()
	})
}
