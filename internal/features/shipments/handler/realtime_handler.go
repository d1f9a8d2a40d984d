package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"courier-portal/internal/core/cache"
	"courier-portal/internal/core/logger"
	"courier-portal/internal/core/realtime"
	"courier-portal/internal/core/server"
	"courier-portal/internal/features/shipments/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	streamBuffer    = 64
	keepAlivePeriod = 15 * time.Second
)

// RealtimeHandler exposes the broadcaster over HTTP.
type RealtimeHandler struct {
	tracker ports.PackageTracker
	// last is optional; without it /last scans the in-memory history.
	last cache.Cache
}

// NewRealtimeHandler creates a new RealtimeHandler. last may be nil.
func NewRealtimeHandler(tracker ports.PackageTracker, last cache.Cache) *RealtimeHandler {
	return &RealtimeHandler{tracker: tracker, last: last}
}

// History handles GET /api/realtime/history.
// @Summary Recent events
// @Tags Realtime
// @Produce json
// @Param limit query int false "Maximum number of events (0 = all retained)"
// @Success 200 {object} server.Response{data=[]realtime.Event}
// @Router /api/realtime/history [get]
func (h *RealtimeHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return server.Fail(c, http.StatusBadRequest, "limit must not be negative")
	}
	return server.OK(c, http.StatusOK, h.tracker.GetEventHistory(limit))
}

// Last handles GET /api/realtime/last.
// @Summary Last event of a channel
// @Tags Realtime
// @Produce json
// @Param channel query string true "Channel name"
// @Success 200 {object} server.Response{data=realtime.Event}
// @Failure 400 {object} server.Response
// @Failure 404 {object} server.Response
// @Router /api/realtime/last [get]
func (h *RealtimeHandler) Last(c *fiber.Ctx) error {
	channel := c.Query("channel")
	if channel == "" {
		return server.Fail(c, http.StatusBadRequest, "channel is required")
	}

	if h.last != nil {
		e, err := realtime.LastEvent(c.Context(), h.last, channel)
		if err != nil {
			logger.Get().Warn("Failed to read last event from cache", zap.String("channel", channel), zap.Error(err))
		} else if e != nil {
			return server.OK(c, http.StatusOK, e)
		}
	}

	history := h.tracker.GetEventHistory(0)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Channel == channel {
			return server.OK(c, http.StatusOK, history[i])
		}
	}
	return server.Fail(c, http.StatusNotFound, "No events on channel")
}

// Stream handles GET /api/realtime/stream as server-sent events.
// @Summary Live event stream
// @Description Server-sent events for one channel; defaults to every channel.
// @Tags Realtime
// @Produce text/event-stream
// @Param channel query string false "Channel name" default(*)
// @Success 200 {string} string
// @Router /api/realtime/stream [get]
func (h *RealtimeHandler) Stream(c *fiber.Ctx) error {
	channel := c.Query("channel", realtime.Wildcard)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	events := make(chan realtime.Event, streamBuffer)
	unsubscribe := h.tracker.Subscribe(channel, func(e realtime.Event) {
		select {
		case events <- e:
		default:
			// slow client, drop rather than block the broadcaster
		}
	})
	log := logger.Named("sse").With(zap.String("channel", channel))

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(keepAlivePeriod)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case e := <-events:
				if err := writeEvent(w, e); err != nil {
					log.Debug("stream closed", zap.Error(err))
					return
				}
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// writeEvent writes one SSE frame and flushes it.
func writeEvent(w *bufio.Writer, e realtime.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
	return w.Flush()
}
