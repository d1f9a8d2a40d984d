package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"courier-portal/internal/core/metrics"
	"courier-portal/internal/core/realtime"
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"
	"courier-portal/internal/features/shipments/ports"

	"go.uber.org/zap"
)

// Event types and channels published by the Tracker.
const (
	EventPackageStatusChanged = "package_status_changed"
	EventPackageEventAdded    = "package_event_added"

	AdminPackagesChannel = "admin:packages"
)

// PackageChannel is the per-package channel name.
func PackageChannel(trackingNumber string) string {
	return "package:" + trackingNumber
}

// Broadcaster is the part of realtime.Hub the Tracker uses.
type Broadcaster interface {
	Broadcast(channel string, e realtime.Event) realtime.Event
	Subscribe(channel string, fn realtime.Handler) func()
	History(limit int) []realtime.Event
}

// FieldChange is one entry of a change diff.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// StatusChange is the payload of package_status_changed.
type StatusChange struct {
	TrackingNumber string                 `json:"trackingNumber"`
	OldStatus      shipping.Status        `json:"oldStatus"`
	NewStatus      shipping.Status        `json:"newStatus"`
	Reason         string                 `json:"reason,omitempty"`
	Event          domain.TrackingEvent   `json:"event"`
	Changes        map[string]FieldChange `json:"changes"`
	Package        *domain.Package        `json:"package"`
}

// EventAdded is the payload of package_event_added.
type EventAdded struct {
	TrackingNumber string               `json:"trackingNumber"`
	Event          domain.TrackingEvent `json:"event"`
	Package        *domain.Package      `json:"package"`
}

// Tracker mutates packages, snapshots them and broadcasts every change.
type Tracker struct {
	// mu serializes the lookup, append and save of each mutation.
	mu sync.Mutex

	repo      ports.Repository
	hub       Broadcaster
	snapshots ports.SnapshotStore
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithSnapshots enables writing the package list after every mutation.
func WithSnapshots(s ports.SnapshotStore) TrackerOption {
	return func(t *Tracker) { t.snapshots = s }
}

// WithTrackerMetrics counts snapshot failures.
func WithTrackerMetrics(m *metrics.Metrics) TrackerOption {
	return func(t *Tracker) { t.metrics = m }
}

// WithTrackerLogger sets the logger.
func WithTrackerLogger(l *zap.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = l }
}

// WithTrackerClock overrides time.Now.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a Tracker.
func NewTracker(repo ports.Repository, hub Broadcaster, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		repo:   repo,
		hub:    hub,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// UpdatePackageStatus records a status transition. It returns false, with no
// side effects, when the tracking number is unknown.
func (t *Tracker) UpdatePackageStatus(ctx context.Context, trackingNumber string, status shipping.Status, reason string) bool {
	t.mu.Lock()
	pkg, ok := t.lookup(ctx, trackingNumber)
	if !ok {
		t.mu.Unlock()
		return false
	}

	now := t.now()
	description := reason
	if description == "" {
		description = fmt.Sprintf("Package status updated to %s", status.Label())
	}
	event := domain.TrackingEvent{
		Timestamp:   now,
		Status:      status,
		Location:    pkg.RecipientLocation(),
		Description: description,
	}

	oldStatus := pkg.Status
	changes := map[string]FieldChange{
		"status":    {From: oldStatus, To: status},
		"updatedAt": {From: pkg.UpdatedAt, To: now},
	}
	updated := t.appendEvent(ctx, pkg, event)
	updated.Status = status
	updated.UpdatedAt = now
	if status == shipping.StatusDelivered && updated.ActualDelivery == nil {
		delivered := now
		updated.ActualDelivery = &delivered
		changes["actualDelivery"] = FieldChange{From: nil, To: now}
	}
	t.save(ctx, updated)
	t.mu.Unlock()

	payload := StatusChange{
		TrackingNumber: updated.TrackingNumber,
		OldStatus:      oldStatus,
		NewStatus:      status,
		Reason:         reason,
		Event:          event,
		Changes:        changes,
		Package:        updated,
	}
	t.publish(updated.TrackingNumber, EventPackageStatusChanged, payload)
	return true
}

// AddPackageEvent appends an event carrying the current status.
func (t *Tracker) AddPackageEvent(ctx context.Context, trackingNumber, description, location string) bool {
	t.mu.Lock()
	pkg, ok := t.lookup(ctx, trackingNumber)
	if !ok {
		t.mu.Unlock()
		return false
	}

	now := t.now()
	event := domain.TrackingEvent{
		Timestamp:   now,
		Status:      pkg.Status,
		Location:    location,
		Description: description,
	}
	updated := t.appendEvent(ctx, pkg, event)
	updated.UpdatedAt = now
	t.save(ctx, updated)
	t.mu.Unlock()

	t.publish(updated.TrackingNumber, EventPackageEventAdded, EventAdded{
		TrackingNumber: updated.TrackingNumber,
		Event:          event,
		Package:        updated,
	})
	return true
}

// GetEventHistory returns the most recent broadcast events.
func (t *Tracker) GetEventHistory(limit int) []realtime.Event {
	return t.hub.History(limit)
}

// GetPackageStats counts packages per status.
func (t *Tracker) GetPackageStats(ctx context.Context) (domain.PackageStats, error) {
	pkgs, err := t.repo.ListPackages(ctx)
	if err != nil {
		return domain.PackageStats{}, fmt.Errorf("service: failed to list packages: %w", err)
	}
	return domain.ComputePackageStats(pkgs), nil
}

// Subscribe registers fn on channel.
func (t *Tracker) Subscribe(channel string, fn realtime.Handler) func() {
	return t.hub.Subscribe(channel, fn)
}

// Persist writes the package list snapshot. Failures are logged and counted.
func (t *Tracker) Persist(ctx context.Context) {
	if t.snapshots == nil {
		return
	}
	pkgs, err := t.repo.ListPackages(ctx)
	if err == nil {
		err = t.snapshots.SavePackages(pkgs)
	}
	if err != nil {
		t.metrics.SnapshotFailed()
		t.logger.Error("failed to persist package snapshot", zap.Error(err))
	}
}

func (t *Tracker) lookup(ctx context.Context, trackingNumber string) (*domain.Package, bool) {
	pkg, err := t.repo.FindPackageByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		t.logger.Error("failed to look up package", zap.String("tracking_number", trackingNumber), zap.Error(err))
		return nil, false
	}
	return pkg, pkg != nil
}

// appendEvent stores the event through the repository; if that fails the
// event is kept on the local copy so the broadcast still reflects it.
func (t *Tracker) appendEvent(ctx context.Context, pkg *domain.Package, event domain.TrackingEvent) *domain.Package {
	updated, err := t.repo.AddTrackingEvent(ctx, pkg.TrackingNumber, event)
	if err != nil || updated == nil {
		if err != nil {
			t.logger.Error("failed to append tracking event", zap.String("tracking_number", pkg.TrackingNumber), zap.Error(err))
		}
		updated = pkg.Clone()
		updated.Events = append(updated.Events, event)
	}
	return updated
}

func (t *Tracker) save(ctx context.Context, pkg *domain.Package) {
	if err := t.repo.SavePackage(ctx, pkg); err != nil {
		t.logger.Error("failed to save package", zap.String("tracking_number", pkg.TrackingNumber), zap.Error(err))
	}
	t.Persist(ctx)
}

func (t *Tracker) publish(trackingNumber, eventType string, data any) {
	e := realtime.Event{Type: eventType, Data: data}
	t.hub.Broadcast(PackageChannel(trackingNumber), e)
	t.hub.Broadcast(AdminPackagesChannel, e)
}
