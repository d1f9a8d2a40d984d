package adapters

import (
	"context"
	"strings"
	"sync"
	"time"

	"courier-portal/internal/features/shipments/domain"

	"github.com/google/uuid"
)

// MemoryRepository is the process-local primary store. Every read returns a
// copy, so callers never mutate stored records without going through it.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    []*domain.User
	packages []*domain.Package
	now      func() time.Time
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

// FindUserByEmail matches emails case-insensitively.
func (r *MemoryRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u := r.userByEmail(email); u != nil {
		return u.Clone(), nil
	}
	return nil, nil
}

func (r *MemoryRepository) userByEmail(email string) *domain.User {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (r *MemoryRepository) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

// CreateUser stores user, assigning an id and timestamps when missing.
func (r *MemoryRepository) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := user.Clone()
	if u.ID == "" {
		u.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := r.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	r.users = append(r.users, u)
	return u.Clone(), nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			patch.Apply(u)
			u.UpdatedAt = r.now()
			return u.Clone(), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u.LastLogin = &at
			return nil
		}
	}
	return nil
}

func (r *MemoryRepository) FindPackageByTrackingNumber(_ context.Context, trackingNumber string) (*domain.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.packageByNumber(trackingNumber); p != nil {
		return p.Clone(), nil
	}
	return nil, nil
}

func (r *MemoryRepository) packageByNumber(trackingNumber string) *domain.Package {
	for _, p := range r.packages {
		if strings.EqualFold(p.TrackingNumber, trackingNumber) {
			return p
		}
	}
	return nil
}

func (r *MemoryRepository) AddTrackingEvent(_ context.Context, trackingNumber string, event domain.TrackingEvent) (*domain.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.packageByNumber(trackingNumber)
	if p == nil {
		return nil, nil
	}
	p.Events = append(p.Events, event)
	return p.Clone(), nil
}

// ListPackages returns packages in insertion order.
func (r *MemoryRepository) ListPackages(_ context.Context) ([]domain.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Package, 0, len(r.packages))
	for _, p := range r.packages {
		out = append(out, *p.Clone())
	}
	return out, nil
}

// SavePackage replaces the package with the same tracking number or appends it.
func (r *MemoryRepository) SavePackage(_ context.Context, pkg *domain.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := pkg.Clone()
	if c.ID == "" {
		c.ID = uuid.Must(uuid.NewV7()).String()
	}
	for i, p := range r.packages {
		if strings.EqualFold(p.TrackingNumber, c.TrackingNumber) {
			r.packages[i] = c
			return nil
		}
	}
	r.packages = append(r.packages, c)
	return nil
}

// ReplacePackages swaps the whole package list, used when restoring a snapshot.
func (r *MemoryRepository) ReplacePackages(pkgs []domain.Package) {
	next := make([]*domain.Package, 0, len(pkgs))
	for _, p := range pkgs {
		next = append(next, p.Clone())
	}
	r.mu.Lock()
	r.packages = next
	r.mu.Unlock()
}
