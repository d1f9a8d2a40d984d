// Package service implements the unified operations store: products,
// locations, tracking numbers, their activities and dashboard statistics.
package service

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"courier-portal/internal/core/realtime"
	"courier-portal/internal/features/operations/domain"
	"courier-portal/internal/features/operations/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Channels broadcast on by the store.
const (
	ProductsChannel        = "admin:products"
	LocationsChannel       = "admin:locations"
	TrackingNumbersChannel = "admin:tracking-numbers"
	ActivitiesChannel      = "admin:activities"
)

// TrackingChannel is the per-code channel for a tracking number.
func TrackingChannel(code string) string {
	return "tracking:" + code
}

// Event types broadcast by the store.
const (
	EventProductCreated        = "product_created"
	EventProductUpdated        = "product_updated"
	EventProductDeleted        = "product_deleted"
	EventLocationCreated       = "location_created"
	EventLocationUpdated       = "location_updated"
	EventLocationDeleted       = "location_deleted"
	EventTrackingNumberCreated = "tracking_number_created"
	EventTrackingNumberUpdated = "tracking_number_updated"
	EventTrackingNumberDeleted = "tracking_number_deleted"
	EventActivityAdded         = "activity_added"
)

// Publisher is the part of realtime.Hub the store needs.
type Publisher interface {
	Broadcast(channel string, e realtime.Event) realtime.Event
}

// LocationCheck validates a location before it is stored.
type LocationCheck func(domain.Location) error

// Store holds every operations entity in memory. Mutations happen under the
// lock; broadcasts are sent after it is released so subscribers may read back.
type Store struct {
	mu              sync.RWMutex
	products        []domain.Product
	locations       []domain.Location
	trackingNumbers []domain.TrackingNumber
	activities      []domain.TrackingActivity

	hub             Publisher
	locationChecks  []LocationCheck
	averageDelivery domain.AverageDeliveryFunc
	logger          *zap.Logger
	now             func() time.Time
	newID           func() string
}

var _ ports.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithAverageDelivery replaces the placeholder average delivery time.
func WithAverageDelivery(fn domain.AverageDeliveryFunc) Option {
	return func(s *Store) { s.averageDelivery = fn }
}

// WithLocationChecks rejects location writes failing any check, e.g. domain.CapacityWithinLimit.
func WithLocationChecks(checks ...LocationCheck) Option {
	return func(s *Store) { s.locationChecks = append(s.locationChecks, checks...) }
}

// NewStore creates an empty store publishing on hub.
func NewStore(hub Publisher, opts ...Option) *Store {
	s := &Store{
		hub:             hub,
		averageDelivery: domain.PlaceholderAverageDelivery,
		logger:          zap.NewNop(),
		now:             time.Now,
		newID:           func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type broadcast struct {
	channel string
	event   realtime.Event
}

func (s *Store) publish(msgs ...broadcast) {
	for _, m := range msgs {
		s.hub.Broadcast(m.channel, m.event)
	}
}

func msg(channel, eventType string, data any) broadcast {
	return broadcast{channel: channel, event: realtime.Event{Type: eventType, Data: data}}
}

// Deletion is the payload of *_deleted events. Only the identifying fields
// of the removed record are broadcast.
type Deletion struct {
	ID             string `json:"id"`
	SKU            string `json:"sku,omitempty"`
	Name           string `json:"name,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func (s *Store) checkLocation(l domain.Location) error {
	for _, check := range s.locationChecks {
		if err := check(l); err != nil {
			return fmt.Errorf("location rejected: %w", err)
		}
	}
	return nil
}

func indexByID[T any](items []T, id string, idOf func(T) string) int {
	return slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
}
