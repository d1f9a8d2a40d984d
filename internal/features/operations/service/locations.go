package service

import (
	"courier-portal/internal/features/operations/domain"
)

func locationID(l domain.Location) string { return l.ID }

// ListLocations returns every location in insertion order.
func (s *Store) ListLocations() []domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, l.Clone())
	}
	return out
}

// GetLocation finds a location by id.
func (s *Store) GetLocation(id string) (domain.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexByID(s.locations, id, locationID); i >= 0 {
		return s.locations[i].Clone(), true
	}
	return domain.Location{}, false
}

// SearchLocations matches q case-insensitively against name, city and state.
func (s *Store) SearchLocations(q string) []domain.Location {
	q = normalizeQuery(q)
	return s.filterLocations(func(l domain.Location) bool {
		return containsFold(l.Name, q) || containsFold(l.Address.City, q) || containsFold(l.Address.State, q)
	})
}

// LocationsByType returns the locations of type t.
func (s *Store) LocationsByType(t domain.LocationType) []domain.Location {
	return s.filterLocations(func(l domain.Location) bool { return l.Type == t })
}

func (s *Store) filterLocations(keep func(domain.Location) bool) []domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Location{}
	for _, l := range s.locations {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}

// CreateLocation stores l under a fresh id after running the location checks.
func (s *Store) CreateLocation(l domain.Location) (domain.Location, error) {
	if err := s.checkLocation(l); err != nil {
		return domain.Location{}, err
	}
	now := s.now()
	l = l.Clone()
	l.ID = s.newID()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.ServicedZones == nil {
		l.ServicedZones = []string{}
	}

	s.mu.Lock()
	s.locations = append(s.locations, l)
	s.mu.Unlock()

	s.publish(msg(LocationsChannel, EventLocationCreated, l.Clone()))
	return l.Clone(), nil
}

// UpdateLocation merges patch into the location. Unknown ids return
// (nil, false, nil); a failing location check leaves the record untouched.
func (s *Store) UpdateLocation(id string, patch domain.LocationPatch) (*domain.Location, bool, error) {
	s.mu.Lock()
	i := indexByID(s.locations, id, locationID)
	if i < 0 {
		s.mu.Unlock()
		return nil, false, nil
	}
	next := s.locations[i].Clone()
	patch.Apply(&next)
	if err := s.checkLocation(next); err != nil {
		s.mu.Unlock()
		return nil, true, err
	}
	next.UpdatedAt = s.now()
	s.locations[i] = next
	s.mu.Unlock()

	s.publish(msg(LocationsChannel, EventLocationUpdated, next.Clone()))
	updated := next.Clone()
	return &updated, true, nil
}

// DeleteLocation removes a location. Unknown ids return false.
func (s *Store) DeleteLocation(id string) bool {
	s.mu.Lock()
	i := indexByID(s.locations, id, locationID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.locations[i]
	s.locations = append(s.locations[:i:i], s.locations[i+1:]...)
	s.mu.Unlock()

	s.publish(msg(LocationsChannel, EventLocationDeleted, Deletion{ID: removed.ID, Name: removed.Name}))
	return true
}
