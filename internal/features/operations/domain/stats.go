package domain

import (
	"time"

	"courier-portal/internal/core/shipping"

	"github.com/shopspring/decimal"
)

// DefaultAverageDeliveryDays is reported until delivery times are measured.
const DefaultAverageDeliveryDays = 2.5

// AverageDeliveryFunc computes the average delivery time in days.
type AverageDeliveryFunc func(tns []TrackingNumber) float64

// PlaceholderAverageDelivery always reports DefaultAverageDeliveryDays.
func PlaceholderAverageDelivery([]TrackingNumber) float64 {
	return DefaultAverageDeliveryDays
}

// DashboardStats summarizes the tracking number list for the admin dashboard.
type DashboardStats struct {
	Total               int                     `json:"total"`
	ByStatus            map[shipping.Status]int `json:"byStatus"`
	ByPriority          map[Priority]int        `json:"byPriority"`
	TotalRevenue        decimal.Decimal         `json:"totalRevenue"`
	Exceptions          int                     `json:"exceptions"`
	DeliveredToday      int                     `json:"deliveredToday"`
	AverageDeliveryTime float64                 `json:"averageDeliveryTime"`
}

// StartOfDay returns local midnight of the day containing now.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// DeliveredAfter reports whether t was delivered strictly after since.
func DeliveredAfter(t TrackingNumber, since time.Time) bool {
	return t.Status == shipping.StatusDelivered && t.ActualDeliveryDate != nil && t.ActualDeliveryDate.After(since)
}

// ComputeDashboardStats derives the stats from tns. Unknown priorities are
// counted as standard so both maps always sum to Total.
func ComputeDashboardStats(tns []TrackingNumber, now time.Time, avg AverageDeliveryFunc) DashboardStats {
	if avg == nil {
		avg = PlaceholderAverageDelivery
	}
	stats := DashboardStats{
		Total:        len(tns),
		ByStatus:     shipping.CountByStatus(),
		ByPriority:   make(map[Priority]int, 3),
		TotalRevenue: decimal.Zero,
	}
	for _, p := range Priorities() {
		stats.ByPriority[p] = 0
	}

	midnight := StartOfDay(now)
	for _, t := range tns {
		status := t.Status
		if !status.Valid() {
			status = shipping.StatusPending
		}
		stats.ByStatus[status]++

		priority := t.Priority
		if !priority.Valid() {
			priority = PriorityStandard
		}
		stats.ByPriority[priority]++

		stats.TotalRevenue = stats.TotalRevenue.Add(t.Cost)
		if t.Status == shipping.StatusException {
			stats.Exceptions++
		}
		if DeliveredAfter(t, midnight) {
			stats.DeliveredToday++
		}
	}
	stats.AverageDeliveryTime = avg(tns)
	return stats
}
