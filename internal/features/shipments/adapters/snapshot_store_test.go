package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	store := NewFileSnapshotStore(filepath.Join(t.TempDir(), "data"))

	pkgs := []domain.Package{{
		TrackingNumber: "SC100001DEMO",
		Status:         shipping.StatusInTransit,
		Cost:           decimal.RequireFromString("12.50"),
		Events:         []domain.TrackingEvent{{Status: shipping.StatusPending, Description: "Label created"}},
	}}
	require.NoError(t, store.SavePackages(pkgs))

	loaded, err := store.LoadPackages()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "SC100001DEMO", loaded[0].TrackingNumber)
	assert.True(t, loaded[0].Cost.Equal(decimal.RequireFromString("12.5")))

	raw, err := os.ReadFile(filepath.Join(store.Dir(), "packages.json"))
	require.NoError(t, err)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.EqualValues(t, SnapshotVersion, snap["version"])

	marker, err := os.ReadFile(filepath.Join(store.Dir(), "users.json"))
	require.NoError(t, err)
	assert.Contains(t, string(marker), "updatedAt")

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestFileSnapshotStore_Missing(t *testing.T) {
	store := NewFileSnapshotStore(t.TempDir())

	pkgs, err := store.LoadPackages()
	require.NoError(t, err)
	assert.Nil(t, pkgs)
}

func TestFileSnapshotStore_LegacyArray(t *testing.T) {
	dir := t.TempDir()
	legacy := `[{"trackingNumber":"SC000001AAAA","status":"In Transit","events":[{"status":"out-for-delivery"}]},
	{"trackingNumber":"SC000002BBBB","status":"lost in space"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packages.json"), []byte(legacy), 0o644))

	pkgs, err := NewFileSnapshotStore(dir).LoadPackages()
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, shipping.StatusInTransit, pkgs[0].Status)
	assert.Equal(t, shipping.StatusOutForDelivery, pkgs[0].Events[0].Status)
	assert.Equal(t, shipping.StatusPending, pkgs[1].Status)
	assert.NotNil(t, pkgs[1].Events)
}

func TestFileSnapshotStore_Errors(t *testing.T) {
	t.Run("Corrupt", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "packages.json"), []byte("{not json"), 0o644))
		_, err := NewFileSnapshotStore(dir).LoadPackages()
		assert.Error(t, err)
	})

	t.Run("FutureVersion", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "packages.json"), []byte(`{"version":99,"packages":[]}`), 0o644))
		_, err := NewFileSnapshotStore(dir).LoadPackages()
		assert.ErrorContains(t, err, "unsupported snapshot version")
	})

	t.Run("UnwritableDir", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		err := NewFileSnapshotStore(filepath.Join(file, "data")).SavePackages(nil)
		assert.Error(t, err)
	})
}
