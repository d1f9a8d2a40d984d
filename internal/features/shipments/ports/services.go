package ports

import (
	"context"

	"courier-portal/internal/core/realtime"
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"
)

// AccountService defines the primary port for login, registration and seeding.
type AccountService interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, in domain.Registration) (*domain.User, error)
	SeedInMemory(ctx context.Context) (domain.SeedResult, error)
}

// PackageReader defines read access to packages.
type PackageReader interface {
	PackageFinder
	PackageLister
}

// PackageTracker defines the primary port for package mutations and their events.
type PackageTracker interface {
	UpdatePackageStatus(ctx context.Context, trackingNumber string, status shipping.Status, reason string) bool
	AddPackageEvent(ctx context.Context, trackingNumber, description, location string) bool
	GetPackageStats(ctx context.Context) (domain.PackageStats, error)
	GetEventHistory(limit int) []realtime.Event
	Subscribe(channel string, fn realtime.Handler) func()
	Persist(ctx context.Context)
}
