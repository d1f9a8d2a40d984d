package domain

import (
	"errors"
	"maps"
	"time"

	"courier-portal/internal/core/shipping"
)

// ActivityType labels an entry of a tracking number's timeline. Every
// shipping.Status is also a valid activity type.
type ActivityType string

const (
	ActivityCreated         ActivityType = "created"
	ActivityStatusChanged   ActivityType = "status_changed"
	ActivityNoteAdded       ActivityType = "note_added"
	ActivityLocationUpdated ActivityType = "location_updated"
	ActivityAssigned        ActivityType = "assigned"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCreated, ActivityStatusChanged, ActivityNoteAdded, ActivityLocationUpdated, ActivityAssigned:
		return true
	}
	return shipping.Status(t).Valid()
}

// ErrInvalidActivityType is returned for activity types outside ActivityType.
var ErrInvalidActivityType = errors.New("invalid activity type")

// UnknownLocation is recorded when a status change has no location.
const UnknownLocation = "Unknown"

// TrackingActivity is an immutable timeline entry.
type TrackingActivity struct {
	ID               string          `json:"id"`
	TrackingNumberID string          `json:"trackingNumberId"`
	TrackingNumber   string          `json:"trackingNumber"`
	ActivityType     ActivityType    `json:"activityType"`
	Status           shipping.Status `json:"status"`
	Location         string          `json:"location"`
	LocationID       string          `json:"locationId,omitempty"`
	Description      string          `json:"description"`
	Timestamp        time.Time       `json:"timestamp"`
	Coordinates      *Coordinates    `json:"coordinates,omitempty"`
	CreatedBy        string          `json:"createdBy,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
}

// Clone returns a copy that does not share coordinates or metadata.
func (a TrackingActivity) Clone() TrackingActivity {
	if a.Coordinates != nil {
		c := *a.Coordinates
		a.Coordinates = &c
	}
	a.Metadata = maps.Clone(a.Metadata)
	return a
}
