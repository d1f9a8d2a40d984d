package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// LocationType classifies a location.
type LocationType string

const (
	LocationPickup    LocationType = "pickup"
	LocationDropoff   LocationType = "dropoff"
	LocationHub       LocationType = "hub"
	LocationWarehouse LocationType = "warehouse"
)

// Valid reports whether t is a known location type.
func (t LocationType) Valid() bool {
	switch t {
	case LocationPickup, LocationDropoff, LocationHub, LocationWarehouse:
		return true
	}
	return false
}

// ErrCapacityExceeded is returned by CapacityWithinLimit.
var ErrCapacityExceeded = errors.New("location capacity exceeded")

// Address is a structured postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Coordinates is a lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Contact is the person responsible for a location.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// DayHours are the opening hours of a single weekday.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

// OperatingHours covers the seven weekdays.
type OperatingHours struct {
	Monday    DayHours `json:"monday"`
	Tuesday   DayHours `json:"tuesday"`
	Wednesday DayHours `json:"wednesday"`
	Thursday  DayHours `json:"thursday"`
	Friday    DayHours `json:"friday"`
	Saturday  DayHours `json:"saturday"`
	Sunday    DayHours `json:"sunday"`
}

// Capacity tracks how many packages a location holds.
type Capacity struct {
	MaxPackages     int `json:"maxPackages"`
	CurrentPackages int `json:"currentPackages"`
}

// Location is a pickup point, drop-off point, hub or warehouse.
type Location struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           LocationType   `json:"type"`
	Address        Address        `json:"address"`
	Coordinates    Coordinates    `json:"coordinates"`
	Contact        Contact        `json:"contact"`
	OperatingHours OperatingHours `json:"operatingHours"`
	Capacity       Capacity       `json:"capacity"`
	ServicedZones  []string       `json:"servicedZones"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	CreatedBy      string         `json:"createdBy,omitempty"`
}

// Clone returns a copy that does not share the zone slice.
func (l Location) Clone() Location {
	l.ServicedZones = slices.Clone(l.ServicedZones)
	return l
}

// CapacityWithinLimit is an opt-in check that the location does not hold more
// packages than its maximum.
func CapacityWithinLimit(l Location) error {
	if l.Capacity.CurrentPackages > l.Capacity.MaxPackages {
		return fmt.Errorf("%w: %d of %d packages", ErrCapacityExceeded, l.Capacity.CurrentPackages, l.Capacity.MaxPackages)
	}
	return nil
}

// LocationPatch is a partial location update; nil fields are left untouched.
type LocationPatch struct {
	Name           *string         `json:"name,omitempty"`
	Type           *LocationType   `json:"type,omitempty"`
	Address        *Address        `json:"address,omitempty"`
	Coordinates    *Coordinates    `json:"coordinates,omitempty"`
	Contact        *Contact        `json:"contact,omitempty"`
	OperatingHours *OperatingHours `json:"operatingHours,omitempty"`
	Capacity       *Capacity       `json:"capacity,omitempty"`
	ServicedZones  *[]string       `json:"servicedZones,omitempty"`
	IsActive       *bool           `json:"isActive,omitempty"`
}

// Apply merges the patch into l.
func (patch LocationPatch) Apply(l *Location) {
	setIf(&l.Name, patch.Name)
	setIf(&l.Type, patch.Type)
	setIf(&l.Address, patch.Address)
	setIf(&l.Coordinates, patch.Coordinates)
	setIf(&l.Contact, patch.Contact)
	setIf(&l.OperatingHours, patch.OperatingHours)
	setIf(&l.Capacity, patch.Capacity)
	if patch.ServicedZones != nil {
		l.ServicedZones = slices.Clone(*patch.ServicedZones)
	}
	setIf(&l.IsActive, patch.IsActive)
}
