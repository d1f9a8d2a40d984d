package service

import (
	"fmt"
	"slices"
	"strings"

	"courier-portal/internal/features/operations/domain"
)

// resolveTracking must be called with s.mu held. Each reference is tried as
// an id and then as a code; -1 when neither matches.
func (s *Store) resolveTracking(refs ...string) int {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if i := indexByID(s.trackingNumbers, ref, trackingID); i >= 0 {
			return i
		}
		if i := s.indexByCode(ref); i >= 0 {
			return i
		}
	}
	return -1
}

// ListActivities returns every activity in chronological order.
func (s *Store) ListActivities() []domain.TrackingActivity {
	return s.filterActivities(func(domain.TrackingActivity) bool { return true })
}

// AddActivity appends a timeline entry. When a.TrackingNumberID or
// a.TrackingNumber refers to a known tracking number, by id or by code, both
// fields are filled in from it. An empty type is recorded as a note. Activities are never
// modified afterwards.
func (s *Store) AddActivity(a domain.TrackingActivity) (domain.TrackingActivity, error) {
	if a.ActivityType == "" {
		a.ActivityType = domain.ActivityNoteAdded
	}
	if !a.ActivityType.Valid() {
		return domain.TrackingActivity{}, fmt.Errorf("%w: %q", domain.ErrInvalidActivityType, a.ActivityType)
	}
	a = a.Clone()
	a.ID = s.newID()
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}

	s.mu.Lock()
	i := s.resolveTracking(a.TrackingNumberID, a.TrackingNumber)
	if i >= 0 {
		a.TrackingNumberID = s.trackingNumbers[i].ID
		a.TrackingNumber = s.trackingNumbers[i].TrackingNumber
		if a.Status == "" {
			a.Status = s.trackingNumbers[i].Status
		}
	}
	if a.Location == "" {
		a.Location = domain.UnknownLocation
	}
	s.activities = append(s.activities, a)
	s.mu.Unlock()

	msgs := []broadcast{msg(ActivitiesChannel, EventActivityAdded, a.Clone())}
	if a.TrackingNumber != "" {
		msgs = append(msgs, msg(TrackingChannel(a.TrackingNumber), EventActivityAdded, a.Clone()))
	}
	s.publish(msgs...)
	return a.Clone(), nil
}

// ActivitiesFor returns the activities of a tracking number, matched by id or
// code, in chronological order.
func (s *Store) ActivitiesFor(idOrCode string) []domain.TrackingActivity {
	return s.filterActivities(func(a domain.TrackingActivity) bool {
		return a.TrackingNumberID == idOrCode || strings.EqualFold(a.TrackingNumber, idOrCode)
	})
}

// RecentActivities returns up to limit activities, newest first. A
// non-positive limit returns all of them.
func (s *Store) RecentActivities(limit int) []domain.TrackingActivity {
	all := s.ListActivities()
	slices.Reverse(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

func (s *Store) filterActivities(keep func(domain.TrackingActivity) bool) []domain.TrackingActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.TrackingActivity{}
	for _, a := range s.activities {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}
