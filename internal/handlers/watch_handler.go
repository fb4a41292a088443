package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const watchHeartbeat = 25 * time.Second

// ChangeSubscriber opens a change feed for one collection. The channel is
// closed when ctx ends.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, collection string) (<-chan events.ChangeEvent, error)
}

// WatchHandler streams change events as server-sent events so clients can
// refresh lists without polling.
type WatchHandler struct {
	BaseHandler
	subscriber ChangeSubscriber
	heartbeat  time.Duration
}

func NewWatchHandler(subscriber ChangeSubscriber, logger utils.Logger) *WatchHandler {
	return &WatchHandler{
		BaseHandler: NewBaseHandler(logger),
		subscriber:  subscriber,
		heartbeat:   watchHeartbeat,
	}
}

// Watch streams changes to a collection
// @Summary Watch collection
// @Description Streams created/updated/deleted notifications for courses, events or announcements
// @Tags watch
// @Produce text/event-stream
// @Param collection path string true "courses, events or announcements"
// @Success 200 {object} events.ChangeEvent
// @Failure 404 {object} ErrorResponse
// @Router /watch/{collection} [get]
func (h *WatchHandler) Watch(c *gin.Context) {
	collection := c.Param("collection")
	if !events.IsWatchable(collection) {
		h.respondError(c, http.StatusNotFound, "not_found", "Unknown collection", collection)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, err := h.subscriber.Subscribe(ctx, collection)
	if err != nil {
		h.LogError(c, err, "Failed to subscribe to change feed", "collection", collection)
		h.respondError(c, http.StatusServiceUnavailable, "unavailable", "Change feed unavailable", nil)
		return
	}

	h.LogRequest(c, "Watching collection", "collection", collection)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-feed:
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Op), evt)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
