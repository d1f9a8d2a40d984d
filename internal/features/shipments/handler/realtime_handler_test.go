package handler

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"courier-portal/internal/core/cache"
	"courier-portal/internal/core/realtime"
	"courier-portal/internal/features/shipments/adapters"
	"courier-portal/internal/features/shipments/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRealtimeApp(t *testing.T, last cache.Cache) (*fiber.App, *realtime.Hub) {
	t.Helper()
	hub := realtime.NewHub(realtime.WithHistoryLimit(10))
	tracker := service.NewTracker(adapters.NewMemoryRepository(), hub)
	handler := NewRealtimeHandler(tracker, last)

	app := fiber.New()
	app.Get("/api/realtime/history", handler.History)
	app.Get("/api/realtime/last", handler.Last)
	return app, hub
}

func TestRealtimeHandler_History(t *testing.T) {
	app, hub := setupRealtimeApp(t, nil)
	for i := 0; i < 3; i++ {
		hub.Broadcast("admin:packages", realtime.Event{Type: "tick"})
	}

	resp, body := getJSON(t, app, "/api/realtime/history?limit=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body.Data, 2)

	resp, _ = getJSON(t, app, "/api/realtime/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRealtimeHandler_Last(t *testing.T) {
	t.Run("FromHistory", func(t *testing.T) {
		app, hub := setupRealtimeApp(t, nil)
		hub.Broadcast("package:A", realtime.Event{Type: "first"})
		hub.Broadcast("package:B", realtime.Event{Type: "other"})
		hub.Broadcast("package:A", realtime.Event{Type: "second"})

		resp, body := getJSON(t, app, "/api/realtime/last?channel=package:A")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "second", body.Data.(map[string]any)["type"])
	})

	t.Run("FromCache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
		require.NoError(t, err)
		t.Cleanup(func() { adapter.Close() })

		sink := realtime.NewRedisSink(adapter)
		require.NoError(t, sink.Relay(context.Background(), realtime.Event{ID: "e1", Type: "cached", Channel: "package:C"}))

		app, _ := setupRealtimeApp(t, adapter)
		resp, body := getJSON(t, app, "/api/realtime/last?channel=package:C")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "cached", body.Data.(map[string]any)["type"])
	})

	t.Run("MissingChannel", func(t *testing.T) {
		app, _ := setupRealtimeApp(t, nil)
		resp, _ := getJSON(t, app, "/api/realtime/last")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("NoEvents", func(t *testing.T) {
		app, _ := setupRealtimeApp(t, nil)
		resp, _ := getJSON(t, app, "/api/realtime/last?channel=package:Z")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	e := realtime.Event{ID: "e1", Type: "package_status_changed", Channel: "package:A", Timestamp: time.Unix(0, 0).UTC()}
	require.NoError(t, writeEvent(w, e))

	out := buf.String()
	assert.Contains(t, out, "id: e1\n")
	assert.Contains(t, out, "event: package_status_changed\n")
	assert.Contains(t, out, `data: {"id":"e1"`)
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n\n")))
}
