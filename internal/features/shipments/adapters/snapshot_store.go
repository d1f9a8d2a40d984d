package adapters

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"
)

// SnapshotVersion is the current on-disk format. Version 0 is the legacy
// bare JSON array of packages.
const SnapshotVersion = 1

const (
	packagesFile = "packages.json"
	usersFile    = "users.json"
)

type packagesSnapshot struct {
	Version  int              `json:"version"`
	SavedAt  time.Time        `json:"savedAt"`
	Packages []domain.Package `json:"packages"`
}

type usersMarker struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileSnapshotStore writes package snapshots under a data directory.
// Writes go to a temp file that is synced and renamed over the target, so a
// reader never sees a partially written snapshot.
type FileSnapshotStore struct {
	dir string
	now func() time.Time
}

// NewFileSnapshotStore creates a store rooted at dir. The directory is created on first write.
func NewFileSnapshotStore(dir string) *FileSnapshotStore {
	return &FileSnapshotStore{dir: dir, now: time.Now}
}

// Dir returns the data directory.
func (s *FileSnapshotStore) Dir() string {
	return s.dir
}

// SavePackages writes packages.json and refreshes the users.json marker.
func (s *FileSnapshotStore) SavePackages(pkgs []domain.Package) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if pkgs == nil {
		pkgs = []domain.Package{}
	}
	now := s.now().UTC()

	data, err := json.MarshalIndent(packagesSnapshot{Version: SnapshotVersion, SavedAt: now, Packages: pkgs}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode packages snapshot: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, packagesFile), data); err != nil {
		return err
	}

	marker, err := json.Marshal(usersMarker{Version: SnapshotVersion, UpdatedAt: now})
	if err != nil {
		return fmt.Errorf("failed to encode users marker: %w", err)
	}
	return writeAtomic(filepath.Join(s.dir, usersFile), marker)
}

// LoadPackages reads packages.json. A missing file yields (nil, nil); legacy
// version 0 snapshots are migrated on read.
func (s *FileSnapshotStore) LoadPackages() ([]domain.Package, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, packagesFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read packages snapshot: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return migrateLegacy(trimmed)
	}

	var snap packagesSnapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode packages snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap.Packages, nil
}

// migrateLegacy decodes a bare array and normalizes free-form statuses
// ("In Transit", "out-for-delivery") into the shared lifecycle.
func migrateLegacy(data []byte) ([]domain.Package, error) {
	var pkgs []domain.Package
	if err := json.Unmarshal(data, &pkgs); err != nil {
		return nil, fmt.Errorf("failed to decode legacy snapshot: %w", err)
	}
	for i := range pkgs {
		pkgs[i].Status = normalizeLegacyStatus(pkgs[i].Status)
		for j := range pkgs[i].Events {
			pkgs[i].Events[j].Status = normalizeLegacyStatus(pkgs[i].Events[j].Status)
		}
		if pkgs[i].Events == nil {
			pkgs[i].Events = []domain.TrackingEvent{}
		}
	}
	return pkgs, nil
}

func normalizeLegacyStatus(s shipping.Status) shipping.Status {
	raw := strings.NewReplacer(" ", "_", "-", "_").Replace(string(s))
	if parsed, err := shipping.ParseStatus(raw); err == nil {
		return parsed
	}
	return shipping.StatusPending
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
