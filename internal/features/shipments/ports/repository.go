package ports

import (
	"context"
	"time"

	"courier-portal/internal/features/shipments/domain"
)

// Each repository method has its own interface so an external backend can
// implement any subset of them and take over exactly those methods.

// UserByEmailFinder finds a user by email; (nil, nil) when absent.
type UserByEmailFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// UserByIDFinder finds a user by id; (nil, nil) when absent.
type UserByIDFinder interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
}

// UserCreator persists a new user and returns the stored record.
type UserCreator interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
}

// UserUpdater merges a patch into a user; (nil, nil) when absent.
type UserUpdater interface {
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}

// LastLoginUpdater records a login time; unknown ids are ignored.
type LastLoginUpdater interface {
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// PackageFinder finds a package by tracking number; (nil, nil) when absent.
type PackageFinder interface {
	FindPackageByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error)
}

// TrackingEventAppender appends an event and returns the updated package; (nil, nil) when absent.
type TrackingEventAppender interface {
	AddTrackingEvent(ctx context.Context, trackingNumber string, event domain.TrackingEvent) (*domain.Package, error)
}

// PackageLister lists every package.
type PackageLister interface {
	ListPackages(ctx context.Context) ([]domain.Package, error)
}

// PackageSaver upserts a package by tracking number.
type PackageSaver interface {
	SavePackage(ctx context.Context, pkg *domain.Package) error
}

// Repository is the full primary store contract.
type Repository interface {
	UserByEmailFinder
	UserByIDFinder
	UserCreator
	UserUpdater
	LastLoginUpdater
	PackageFinder
	TrackingEventAppender
	PackageLister
	PackageSaver
}

// Backend is an external database adapter. It implements any subset of the
// single-method interfaces above.
type Backend interface {
	Name() string
	Close() error
}

// BackendConnector builds and health-checks a Backend.
type BackendConnector func(ctx context.Context) (Backend, error)

// SnapshotStore persists the package list outside the process.
type SnapshotStore interface {
	SavePackages(pkgs []domain.Package) error
	LoadPackages() ([]domain.Package, error)
}
