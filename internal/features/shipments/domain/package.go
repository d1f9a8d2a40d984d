package domain

import (
	"strings"
	"time"

	"courier-portal/internal/core/shipping"

	"github.com/shopspring/decimal"
)

// Address is a sender or recipient block of a package.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// TrackingEvent is one entry of a package's history.
type TrackingEvent struct {
	Timestamp   time.Time       `json:"timestamp"`
	Status      shipping.Status `json:"status"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
}

// Package is a customer shipment as shown on the tracking pages.
type Package struct {
	ID                string          `json:"id"`
	TrackingNumber    string          `json:"trackingNumber"`
	UserID            string          `json:"userId,omitempty"`
	Status            shipping.Status `json:"status"`
	Service           string          `json:"service,omitempty"`
	Weight            float64         `json:"weight,omitempty"`
	Dimensions        string          `json:"dimensions,omitempty"`
	Sender            Address         `json:"sender"`
	Recipient         Address         `json:"recipient"`
	Cost              decimal.Decimal `json:"cost"`
	Events            []TrackingEvent `json:"events"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actualDelivery,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// RecipientLocation renders "City, State" of the recipient, skipping empty parts.
func (p Package) RecipientLocation() string {
	var parts []string
	for _, s := range []string{p.Recipient.City, p.Recipient.State} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Clone returns a deep copy of p.
func (p Package) Clone() *Package {
	c := p
	c.Events = append([]TrackingEvent(nil), p.Events...)
	if c.Events == nil {
		c.Events = []TrackingEvent{}
	}
	if p.EstimatedDelivery != nil {
		t := *p.EstimatedDelivery
		c.EstimatedDelivery = &t
	}
	if p.ActualDelivery != nil {
		t := *p.ActualDelivery
		c.ActualDelivery = &t
	}
	return &c
}

// PackageStats summarizes the package list.
type PackageStats struct {
	Total    int                     `json:"total"`
	ByStatus map[shipping.Status]int `json:"byStatus"`
}

// ComputePackageStats counts packages per status; every status key is always present.
func ComputePackageStats(pkgs []Package) PackageStats {
	stats := PackageStats{ByStatus: shipping.CountByStatus()}
	for _, p := range pkgs {
		stats.Total++
		stats.ByStatus[p.Status]++
	}
	return stats
}
