package ports

import (
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/operations/domain"
)

// ProductStore manages the product catalog.
type ProductStore interface {
	ListProducts() []domain.Product
	GetProduct(id string) (domain.Product, bool)
	SearchProducts(q string) []domain.Product
	CreateProduct(p domain.Product) (domain.Product, error)
	UpdateProduct(id string, patch domain.ProductPatch) (*domain.Product, bool, error)
	DeleteProduct(id string) bool
}

// LocationStore manages pickup points, hubs and warehouses.
type LocationStore interface {
	ListLocations() []domain.Location
	GetLocation(id string) (domain.Location, bool)
	SearchLocations(q string) []domain.Location
	LocationsByType(t domain.LocationType) []domain.Location
	CreateLocation(l domain.Location) (domain.Location, error)
	UpdateLocation(id string, patch domain.LocationPatch) (*domain.Location, bool, error)
	DeleteLocation(id string) bool
}

// TrackingNumberStore manages tracking numbers and their activity timelines.
type TrackingNumberStore interface {
	ListTrackingNumbers() []domain.TrackingNumber
	GetTrackingNumber(id string) (domain.TrackingNumber, bool)
	GetTrackingNumberByCode(code string) (domain.TrackingNumber, bool)
	SearchTrackingNumbers(q string) []domain.TrackingNumber
	TrackingNumbersByStatus(status shipping.Status) []domain.TrackingNumber
	CreateTrackingNumber(t domain.TrackingNumber) domain.TrackingNumber
	UpdateTrackingNumber(id string, patch domain.TrackingNumberPatch) (*domain.TrackingNumber, bool)
	DeleteTrackingNumber(id string) bool

	ListActivities() []domain.TrackingActivity
	AddActivity(a domain.TrackingActivity) (domain.TrackingActivity, error)
	ActivitiesFor(idOrCode string) []domain.TrackingActivity
	RecentActivities(limit int) []domain.TrackingActivity
}

// DashboardReader serves the admin dashboard figures.
type DashboardReader interface {
	GetDashboardStats() domain.DashboardStats
	GetDeliveredToday() []domain.TrackingNumber
}

// Store is the whole unified operations store.
type Store interface {
	ProductStore
	LocationStore
	TrackingNumberStore
	DashboardReader
}
