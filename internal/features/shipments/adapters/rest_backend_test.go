package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courier-portal/internal/core/config"
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRestBackend(t *testing.T, handler http.HandlerFunc) *RestBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRestBackend(config.ExternalConfig{URL: srv.URL + "/", Key: "secret", TimeoutSeconds: 2})
}

func TestRestBackend_HealthCheck(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		backend := newTestRestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/v1/users", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			w.Write([]byte(`[]`))
		})
		assert.NoError(t, backend.HealthCheck(context.Background()))
	})

	t.Run("Unauthorized", func(t *testing.T) {
		backend := newTestRestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
		})
		err := backend.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestRestBackend_FindUserByEmail(t *testing.T) {
	backend := newTestRestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") == "eq.demo@courierportal.dev" {
			w.Write([]byte(`[{"id":"u1","email":"demo@courierportal.dev","password_hash":"hash","name":"Demo","user_type":"demo"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})

	u, err := backend.FindUserByEmail(context.Background(), "Demo@CourierPortal.dev")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, domain.UserTypeDemo, u.UserType)

	missing, err := backend.FindUserByEmail(context.Background(), "nobody@courierportal.dev")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRestBackend_CreateUser(t *testing.T) {
	backend := newTestRestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var row userRow
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.NotEmpty(t, row.ID)
		assert.Equal(t, "new@courierportal.dev", row.Email)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]userRow{row})
	})

	u, err := backend.CreateUser(context.Background(), &domain.User{Email: "NEW@courierportal.dev", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, "new@courierportal.dev", u.Email)
}

func TestRestBackend_Packages(t *testing.T) {
	var postedEvent eventRow
	backend := newTestRestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rest/v1/packages":
			if r.URL.Query().Get("tracking_number") == "eq.UNKNOWN" {
				w.Write([]byte(`[]`))
				return
			}
			w.Write([]byte(`[{"id":"p1","tracking_number":"SC100001DEMO","status":"in_transit","cost":"12.50","recipient":{"city":"Austin","state":"TX"}}]`))
		case r.URL.Path == "/rest/v1/events" && r.Method == http.MethodGet:
			w.Write([]byte(`[{"package_id":"p1","status":"pending","description":"Label created"}]`))
		case r.URL.Path == "/rest/v1/events" && r.Method == http.MethodPost:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&postedEvent))
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	t.Run("Find", func(t *testing.T) {
		p, err := backend.FindPackageByTrackingNumber(ctx, "SC100001DEMO")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, shipping.StatusInTransit, p.Status)
		assert.Equal(t, "12.5", p.Cost.String())
		require.Len(t, p.Events, 1)
		assert.Equal(t, "Austin, TX", p.RecipientLocation())
	})

	t.Run("FindMissing", func(t *testing.T) {
		p, err := backend.FindPackageByTrackingNumber(ctx, "UNKNOWN")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("AddTrackingEvent", func(t *testing.T) {
		ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		p, err := backend.AddTrackingEvent(ctx, "SC100001DEMO", domain.TrackingEvent{Timestamp: ts, Status: shipping.StatusDelivered, Description: "Left at door"})
		require.NoError(t, err)
		require.Len(t, p.Events, 2)
		assert.Equal(t, "p1", postedEvent.PackageID)
		assert.Equal(t, shipping.StatusDelivered, postedEvent.Status)
	})

	t.Run("List", func(t *testing.T) {
		pkgs, err := backend.ListPackages(ctx)
		require.NoError(t, err)
		require.Len(t, pkgs, 1)
		assert.Len(t, pkgs[0].Events, 1)
	})
}

func TestRestBackend_SavePackage(t *testing.T) {
	delivered := time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC)

	t.Run("PatchesExistingRow", func(t *testing.T) {
		var patch packagePatch
		backend := newTestRestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/rest/v1/packages", r.URL.Path)
			assert.Equal(t, "eq.SC100001DEMO", r.URL.Query().Get("tracking_number"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			w.Write([]byte(`[{"id":"p1","tracking_number":"SC100001DEMO","status":"delivered"}]`))
		})

		err := backend.SavePackage(context.Background(), &domain.Package{
			ID:             "p1",
			TrackingNumber: "SC100001DEMO",
			Status:         shipping.StatusDelivered,
			ActualDelivery: &delivered,
			UpdatedAt:      delivered,
		})
		require.NoError(t, err)
		assert.Equal(t, shipping.StatusDelivered, patch.Status)
		require.NotNil(t, patch.ActualDelivery)
		assert.True(t, delivered.Equal(*patch.ActualDelivery))
		assert.True(t, delivered.Equal(patch.UpdatedAt))
	})

	t.Run("InsertsMissingRow", func(t *testing.T) {
		var methods []string
		var inserted packageRow
		var events []eventRow
		backend := newTestRestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method+" "+r.URL.Path)
			switch {
			case r.Method == http.MethodPatch:
				w.Write([]byte(`[]`))
			case r.URL.Path == "/rest/v1/packages":
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&inserted))
				w.WriteHeader(http.StatusCreated)
			case r.URL.Path == "/rest/v1/events":
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&events))
				w.WriteHeader(http.StatusCreated)
			}
		})

		err := backend.SavePackage(context.Background(), &domain.Package{
			TrackingNumber: "SC100002NEWW",
			Status:         shipping.StatusPending,
			Events:         []domain.TrackingEvent{{Timestamp: delivered, Status: shipping.StatusPending, Description: "Label created"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"PATCH /rest/v1/packages", "POST /rest/v1/packages", "POST /rest/v1/events"}, methods)
		assert.NotEmpty(t, inserted.ID)
		require.Len(t, events, 1)
		assert.Equal(t, inserted.ID, events[0].PackageID)
	})
}
