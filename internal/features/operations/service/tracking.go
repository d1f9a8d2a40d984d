package service

import (
	"fmt"
	"strings"

	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/operations/domain"

	"go.uber.org/zap"
)

func trackingID(t domain.TrackingNumber) string { return t.ID }

// ListTrackingNumbers returns every tracking number in insertion order.
func (s *Store) ListTrackingNumbers() []domain.TrackingNumber {
	return s.filterTracking(func(domain.TrackingNumber) bool { return true })
}

// GetTrackingNumber finds a tracking number by id.
func (s *Store) GetTrackingNumber(id string) (domain.TrackingNumber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexByID(s.trackingNumbers, id, trackingID); i >= 0 {
		return s.trackingNumbers[i].Clone(), true
	}
	return domain.TrackingNumber{}, false
}

// GetTrackingNumberByCode finds a tracking number by its code, ignoring case.
func (s *Store) GetTrackingNumberByCode(code string) (domain.TrackingNumber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexByCode(code); i >= 0 {
		return s.trackingNumbers[i].Clone(), true
	}
	return domain.TrackingNumber{}, false
}

func (s *Store) indexByCode(code string) int {
	for i, t := range s.trackingNumbers {
		if strings.EqualFold(t.TrackingNumber, code) {
			return i
		}
	}
	return -1
}

// SearchTrackingNumbers matches q case-insensitively against the code and
// the recipient and sender names.
func (s *Store) SearchTrackingNumbers(q string) []domain.TrackingNumber {
	q = normalizeQuery(q)
	return s.filterTracking(func(t domain.TrackingNumber) bool {
		return containsFold(t.TrackingNumber, q) || containsFold(t.Recipient.Name, q) || containsFold(t.Sender.Name, q)
	})
}

// TrackingNumbersByStatus returns the tracking numbers in status.
func (s *Store) TrackingNumbersByStatus(status shipping.Status) []domain.TrackingNumber {
	return s.filterTracking(func(t domain.TrackingNumber) bool { return t.Status == status })
}

func (s *Store) filterTracking(keep func(domain.TrackingNumber) bool) []domain.TrackingNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.TrackingNumber{}
	for _, t := range s.trackingNumbers {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// CreateTrackingNumber stores t under a fresh id and generated code, and
// records its "created" activity.
func (s *Store) CreateTrackingNumber(t domain.TrackingNumber) domain.TrackingNumber {
	now := s.now()
	t = t.Clone()
	t.ID = s.newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if !t.Status.Valid() {
		t.Status = shipping.StatusPending
	}
	if !t.Priority.Valid() {
		t.Priority = domain.PriorityStandard
	}
	if t.SpecialHandling == nil {
		t.SpecialHandling = []string{}
	}

	s.mu.Lock()
	t.TrackingNumber = s.uniqueCode()
	activity := domain.TrackingActivity{
		ID:               s.newID(),
		TrackingNumberID: t.ID,
		TrackingNumber:   t.TrackingNumber,
		ActivityType:     domain.ActivityCreated,
		Status:           t.Status,
		Location:         t.CurrentLocation,
		LocationID:       t.SenderLocationID,
		Description:      "Tracking number created",
		Timestamp:        now,
		CreatedBy:        t.CreatedBy,
	}
	if activity.Location == "" {
		activity.Location = domain.UnknownLocation
	}
	s.trackingNumbers = append(s.trackingNumbers, t)
	s.activities = append(s.activities, activity)
	s.mu.Unlock()

	s.logger.Debug("tracking number created", zap.String("tracking_number", t.TrackingNumber))
	s.publish(
		msg(TrackingNumbersChannel, EventTrackingNumberCreated, t.Clone()),
		msg(TrackingChannel(t.TrackingNumber), EventTrackingNumberCreated, t.Clone()),
		msg(ActivitiesChannel, EventActivityAdded, activity.Clone()),
	)
	return t.Clone()
}

// uniqueCode generates a code not used in this store. Callers hold the write lock.
func (s *Store) uniqueCode() string {
	for {
		code := domain.GenerateTrackingNumber(s.now())
		if s.indexByCode(code) < 0 {
			return code
		}
	}
}

// UpdateTrackingNumber merges patch into the tracking number. A status change
// records exactly one "status_changed" activity. Unknown ids return (nil, false).
func (s *Store) UpdateTrackingNumber(id string, patch domain.TrackingNumberPatch) (*domain.TrackingNumber, bool) {
	now := s.now()

	s.mu.Lock()
	i := indexByID(s.trackingNumbers, id, trackingID)
	if i < 0 {
		s.mu.Unlock()
		return nil, false
	}
	current := &s.trackingNumbers[i]
	oldStatus := current.Status
	previousLocation := current.CurrentLocation

	patch.Apply(current)
	current.UpdatedAt = now

	var activity *domain.TrackingActivity
	if current.Status != oldStatus {
		if current.Status == shipping.StatusDelivered && patch.ActualDeliveryDate == nil {
			delivered := now
			current.ActualDeliveryDate = &delivered
		}

		location := domain.UnknownLocation
		switch {
		case patch.CurrentLocation != nil && *patch.CurrentLocation != "":
			location = *patch.CurrentLocation
		case previousLocation != "":
			location = previousLocation
		}
		a := domain.TrackingActivity{
			ID:               s.newID(),
			TrackingNumberID: current.ID,
			TrackingNumber:   current.TrackingNumber,
			ActivityType:     domain.ActivityStatusChanged,
			Status:           current.Status,
			Location:         location,
			Description:      fmt.Sprintf("Status changed from %s to %s", oldStatus.Label(), current.Status.Label()),
			Timestamp:        now,
			Metadata: map[string]any{
				"oldStatus": oldStatus,
				"newStatus": current.Status,
			},
		}
		s.activities = append(s.activities, a)
		activity = &a
	}
	updated := current.Clone()
	s.mu.Unlock()

	msgs := []broadcast{
		msg(TrackingNumbersChannel, EventTrackingNumberUpdated, updated.Clone()),
		msg(TrackingChannel(updated.TrackingNumber), EventTrackingNumberUpdated, updated.Clone()),
	}
	if activity != nil {
		msgs = append(msgs, msg(ActivitiesChannel, EventActivityAdded, activity.Clone()))
	}
	s.publish(msgs...)
	return &updated, true
}

// DeleteTrackingNumber removes a tracking number. Its activities are kept.
// Unknown ids return false.
func (s *Store) DeleteTrackingNumber(id string) bool {
	s.mu.Lock()
	i := indexByID(s.trackingNumbers, id, trackingID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.trackingNumbers[i]
	s.trackingNumbers = append(s.trackingNumbers[:i:i], s.trackingNumbers[i+1:]...)
	s.mu.Unlock()

	deletion := Deletion{ID: removed.ID, TrackingNumber: removed.TrackingNumber}
	s.publish(
		msg(TrackingNumbersChannel, EventTrackingNumberDeleted, deletion),
		msg(TrackingChannel(removed.TrackingNumber), EventTrackingNumberDeleted, deletion),
	)
	return true
}
