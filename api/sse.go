package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/relay"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Streamer interface {
	Register(clientID string) (*relay.Client, error)
	Unregister(c *relay.Client)
	Count() int
}

type SSEHandler struct {
	hub Streamer
	log *zap.Logger
}

func NewSSEHandler(hub Streamer, log *zap.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, log: log}
}

func (h *SSEHandler) Register(router *gin.RouterGroup) {
	router.GET("/connect/:clientId", h.connect)
	router.GET("/status", h.status)
}

// connect holds the response open and writes frames until the client goes away or
// the stream is replaced.
func (h *SSEHandler) connect(c *gin.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		respondError(c, h.log, errs.Validation("client id is required"))
		return
	}
	client, err := h.hub.Register(clientID)
	if errors.Is(err, relay.ErrClosed) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, envelope{Message: "server is shutting down", Error: "unavailable"})
		return
	}
	if err != nil {
		respondError(c, h.log, errs.Internal("failed to open event stream", err))
		return
	}
	defer h.hub.Unregister(client)

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	h.log.Debug("sse client connected", zap.String("client_id", clientID))
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case frame := <-client.Frames():
			if _, err := w.Write(frame); err != nil {
				h.log.Debug("sse write failed", zap.String("client_id", clientID), zap.Error(err))
				return
			}
			w.Flush()
		}
	}
}

func (h *SSEHandler) status(c *gin.Context) {
	respond(c, http.StatusOK, "sse status", gin.H{"connectedClients": h.hub.Count()})
}
