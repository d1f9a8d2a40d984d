package service

import (
	"courier-portal/internal/features/operations/domain"
)

// GetDashboardStats recomputes the dashboard statistics from the current
// tracking numbers.
func (s *Store) GetDashboardStats() domain.DashboardStats {
	return domain.ComputeDashboardStats(s.ListTrackingNumbers(), s.now(), s.averageDelivery)
}

// GetDeliveredToday returns the tracking numbers delivered after local midnight.
func (s *Store) GetDeliveredToday() []domain.TrackingNumber {
	midnight := domain.StartOfDay(s.now())
	return s.filterTracking(func(t domain.TrackingNumber) bool {
		return domain.DeliveredAfter(t, midnight)
	})
}
