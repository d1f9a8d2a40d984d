package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"courier-portal/internal/core/realtime"
	"courier-portal/internal/core/server"
	"courier-portal/internal/core/validation"
	"courier-portal/internal/features/operations/domain"
	"courier-portal/internal/features/operations/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminApp(t *testing.T) (*fiber.App, *service.Store) {
	t.Helper()
	store := service.NewStore(realtime.NewHub(), service.WithLocationChecks(domain.CapacityWithinLimit))
	handler := NewAdminHandler(store, validation.New())

	app := fiber.New()
	admin := app.Group("/api/admin")
	admin.Get("/tracking-numbers", handler.TrackingNumbers)
	admin.Post("/tracking-numbers", handler.MutateTrackingNumbers)
	admin.Get("/products", handler.Products)
	admin.Post("/products", handler.MutateProducts)
	admin.Get("/locations", handler.Locations)
	admin.Post("/locations", handler.MutateLocations)
	admin.Get("/activities", handler.Activities)
	admin.Post("/activities", handler.MutateActivities)
	admin.Get("/stats", handler.Stats)
	admin.Get("/delivered-today", handler.DeliveredToday)
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, server.Response) {
	t.Helper()
	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	var envelope server.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func action(name, id string, data any) map[string]any {
	out := map[string]any{"action": name}
	if id != "" {
		out["id"] = id
	}
	if data != nil {
		out["data"] = data
	}
	return out
}

func TestAdminHandler_TrackingNumberLifecycle(t *testing.T) {
	app, store := setupAdminApp(t)

	status, body := call(t, app, http.MethodPost, "/api/admin/tracking-numbers", action(ActionCreate, "", map[string]any{
		"recipient": map[string]string{"name": "Grace Hopper"},
		"priority":  "express",
		"cost":      "12.50",
	}))
	require.Equal(t, http.StatusCreated, status, body.Error)
	created := body.Data.(map[string]any)
	id := created["id"].(string)
	code := created["trackingNumber"].(string)
	assert.Regexp(t, domain.TrackingNumberPattern, code)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, true, created["isActive"])

	status, body = call(t, app, http.MethodPost, "/api/admin/tracking-numbers", action(ActionUpdate, id, map[string]any{
		"status": "delivered",
	}))
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.NotNil(t, body.Data.(map[string]any)["actualDeliveryDate"])

	status, body = call(t, app, http.MethodGet, "/api/admin/activities?trackingNumber="+code, nil)
	require.Equal(t, http.StatusOK, status)
	timeline := body.Data.([]any)
	require.Len(t, timeline, 2)
	assert.Equal(t, "created", timeline[0].(map[string]any)["activityType"])
	assert.Equal(t, "status_changed", timeline[1].(map[string]any)["activityType"])

	status, body = call(t, app, http.MethodGet, "/api/admin/delivered-today", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Data, 1)

	status, body = call(t, app, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, status)
	stats := body.Data.(map[string]any)
	assert.EqualValues(t, 1, stats["total"])
	assert.Equal(t, "12.5", stats["totalRevenue"])

	status, _ = call(t, app, http.MethodPost, "/api/admin/tracking-numbers", action(ActionDelete, id, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, store.ListTrackingNumbers())

	status, body = call(t, app, http.MethodPost, "/api/admin/tracking-numbers", action(ActionDelete, id, nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Tracking number not found", body.Error)
}

func TestAdminHandler_TrackingNumberFilters(t *testing.T) {
	app, store := setupAdminApp(t)
	first := store.CreateTrackingNumber(domain.TrackingNumber{Recipient: domain.Party{Name: "Ada Lovelace"}})
	store.CreateTrackingNumber(domain.TrackingNumber{Recipient: domain.Party{Name: "Alan Turing"}, Status: "in_transit"})

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"All", "", http.StatusOK, 2},
		{"Search", "?q=lovelace", http.StatusOK, 1},
		{"Status", "?status=in_transit", http.StatusOK, 1},
		{"InvalidStatus", "?status=lost", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, http.MethodGet, "/api/admin/tracking-numbers"+tt.query, nil)
			assert.Equal(t, tt.status, status)
			if tt.status == http.StatusOK {
				assert.Len(t, body.Data, tt.count)
			}
		})
	}

	t.Run("ByCode", func(t *testing.T) {
		status, body := call(t, app, http.MethodGet, "/api/admin/tracking-numbers?trackingNumber="+first.TrackingNumber, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, first.ID, body.Data.(map[string]any)["id"])

		status, _ = call(t, app, http.MethodGet, "/api/admin/tracking-numbers?trackingNumber=SC000000XXXX", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestAdminHandler_ActionValidation(t *testing.T) {
	app, _ := setupAdminApp(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"UnknownAction", action("archive", "", nil), "action: must be one of: create update delete add_activity"},
		{"UpdateWithoutID", action(ActionUpdate, "", map[string]any{}), "id: invalid value"},
		{"CreateWithoutData", action(ActionCreate, "", nil), "data: this field is required"},
		{"CreateInvalidPriority", action(ActionCreate, "", map[string]any{"priority": "rush"}), "priority: must be one of: standard express overnight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, http.MethodPost, "/api/admin/tracking-numbers", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, body.Error)
		})
	}
}

func TestAdminHandler_Products(t *testing.T) {
	app, _ := setupAdminApp(t)

	status, body := call(t, app, http.MethodPost, "/api/admin/products", action(ActionCreate, "", map[string]any{
		"sku":      "BOX-S",
		"name":     "Small Box",
		"category": "Packaging",
		"pricing":  map[string]any{"baseCost": "4.99", "currency": "USD"},
	}))
	require.Equal(t, http.StatusCreated, status, body.Error)
	id := body.Data.(map[string]any)["id"].(string)

	status, body = call(t, app, http.MethodPost, "/api/admin/products", action(ActionUpdate, id, map[string]any{"name": "Tiny Box"}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Tiny Box", body.Data.(map[string]any)["name"])

	status, body = call(t, app, http.MethodGet, "/api/admin/products?q=packaging", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Data, 1)

	status, _ = call(t, app, http.MethodPost, "/api/admin/products", action(ActionUpdate, "missing", map[string]any{"name": "x"}))
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, app, http.MethodPost, "/api/admin/products", action(ActionCreate, "", map[string]any{"name": "No SKU"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "sku: this field is required", body.Error)

	status, _ = call(t, app, http.MethodPost, "/api/admin/products", action(ActionAddActivity, "", map[string]any{}))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminHandler_ProductSKUConflict(t *testing.T) {
	app, store := setupAdminApp(t)
	_, err := store.CreateProduct(domain.Product{SKU: "BOX-S", Name: "Small Box"})
	require.NoError(t, err)
	tube, err := store.CreateProduct(domain.Product{SKU: "TUBE-1", Name: "Tube"})
	require.NoError(t, err)

	status, body := call(t, app, http.MethodPost, "/api/admin/products", action(ActionCreate, "", map[string]any{
		"sku":  "box-s",
		"name": "Another Box",
	}))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "sku already in use: box-s", body.Error)

	status, body = call(t, app, http.MethodPost, "/api/admin/products", action(ActionUpdate, tube.ID, map[string]any{"sku": "BOX-S"}))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "sku already in use: BOX-S", body.Error)

	assert.Len(t, store.ListProducts(), 2)
}

func TestAdminHandler_Locations(t *testing.T) {
	app, _ := setupAdminApp(t)

	status, body := call(t, app, http.MethodPost, "/api/admin/locations", action(ActionCreate, "", map[string]any{
		"name":     "Austin Hub",
		"type":     "hub",
		"address":  map[string]string{"city": "Austin", "state": "TX"},
		"capacity": map[string]int{"maxPackages": 10, "currentPackages": 2},
	}))
	require.Equal(t, http.StatusCreated, status, body.Error)
	id := body.Data.(map[string]any)["id"].(string)

	status, _ = call(t, app, http.MethodPost, "/api/admin/locations", action(ActionUpdate, id, map[string]any{
		"capacity": map[string]int{"maxPackages": 1, "currentPackages": 2},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = call(t, app, http.MethodGet, "/api/admin/locations?type=hub", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Data, 1)

	status, _ = call(t, app, http.MethodGet, "/api/admin/locations?type=airport", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, app, http.MethodGet, "/api/admin/locations?id="+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 10, body.Data.(map[string]any)["capacity"].(map[string]any)["maxPackages"])
}

func TestAdminHandler_Activities(t *testing.T) {
	app, store := setupAdminApp(t)
	tn := store.CreateTrackingNumber(domain.TrackingNumber{})

	status, body := call(t, app, http.MethodPost, "/api/admin/activities", action(ActionAddActivity, "", map[string]any{
		"trackingNumber": tn.TrackingNumber,
		"activityType":   "note_added",
		"description":    "Customer asked to hold at depot",
	}))
	require.Equal(t, http.StatusCreated, status, body.Error)
	assert.Equal(t, tn.ID, body.Data.(map[string]any)["trackingNumberId"])

	status, body = call(t, app, http.MethodPost, "/api/admin/activities", action(ActionAddActivity, "", map[string]any{
		"trackingNumberId": tn.TrackingNumber,
		"description":      "Code sent as id",
	}))
	require.Equal(t, http.StatusCreated, status, body.Error)
	assert.Equal(t, tn.ID, body.Data.(map[string]any)["trackingNumberId"])
	assert.Equal(t, tn.TrackingNumber, body.Data.(map[string]any)["trackingNumber"])

	status, _ = call(t, app, http.MethodPost, "/api/admin/activities", action(ActionAddActivity, "", map[string]any{
		"trackingNumber": "SC000000XXXX",
		"description":    "Nobody home",
	}))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, http.MethodPost, "/api/admin/tracking-numbers", action(ActionAddActivity, "", map[string]any{
		"trackingNumberId": tn.ID,
		"activityType":     "teleported",
		"description":      "Beamed up",
	}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, app, http.MethodGet, "/api/admin/activities?limit=1", nil)
	require.Equal(t, http.StatusOK, status)
	recent := body.Data.([]any)
	require.Len(t, recent, 1)
	assert.Equal(t, "note_added", recent[0].(map[string]any)["activityType"])

	status, _ = call(t, app, http.MethodGet, "/api/admin/activities?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
