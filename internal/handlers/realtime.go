package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/bloodlink/internal/realtime"
	"github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/response"
)

// RealtimeHandler upgrades authenticated clients onto the table-change feed.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /api/ws?streams=emergency_posts,messages
//
// Clients may pre-subscribe via the streams query parameter and adjust the
// set later with subscribe/unsubscribe control messages.
func (h *RealtimeHandler) Serve(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	allowed := realtime.KnownStreams()

	var streams []string
	for _, stream := range strings.Split(c.Query("streams"), ",") {
		stream = strings.TrimSpace(stream)
		if stream == "" {
			continue
		}
		if _, ok := allowed[stream]; !ok {
			response.Error(c, errors.NewBadRequest("unknown stream: "+stream))
			return
		}
		streams = append(streams, stream)
	}

	h.hub.Serve(userID, streams, allowed, c.Writer, c.Request)
}
