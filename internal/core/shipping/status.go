// Package shipping holds the shipment lifecycle shared by packages and tracking numbers.
package shipping

import (
	"errors"
	"strings"
)

// Status is the lifecycle status of a shipment.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPickedUp       Status = "picked_up"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusException      Status = "exception"
)

// ErrInvalidStatus is returned when a status string is not part of the lifecycle.
var ErrInvalidStatus = errors.New("invalid shipment status")

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusPickedUp,
		StatusInTransit,
		StatusOutForDelivery,
		StatusDelivered,
		StatusException,
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Label renders the status for humans, e.g. "Out For Delivery".
func (s Status) Label() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// CountByStatus returns a map pre-filled with every status at zero.
func CountByStatus() map[Status]int {
	counts := make(map[Status]int, len(Statuses()))
	for _, s := range Statuses() {
		counts[s] = 0
	}
	return counts
}
