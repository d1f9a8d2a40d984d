package domain

import (
	"fmt"
	"math/rand"
	"regexp"
	"slices"
	"strings"
	"time"

	"courier-portal/internal/core/shipping"

	"github.com/shopspring/decimal"
)

// Priority is the service level of a shipment.
type Priority string

const (
	PriorityStandard  Priority = "standard"
	PriorityExpress   Priority = "express"
	PriorityOvernight Priority = "overnight"
)

// Priorities lists every priority.
func Priorities() []Priority {
	return []Priority{PriorityStandard, PriorityExpress, PriorityOvernight}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return slices.Contains(Priorities(), p)
}

// TrackingNumberPrefix starts every generated code.
const TrackingNumberPrefix = "SC"

// TrackingNumberPattern matches generated codes, e.g. SC482913K7QZ.
var TrackingNumberPattern = regexp.MustCompile(`^SC[0-9]{6}[0-9A-Z]{4}$`)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateTrackingNumber builds a code from the last 6 digits of now in epoch
// milliseconds and 4 random base-36 characters.
func GenerateTrackingNumber(now time.Time) string {
	var b strings.Builder
	b.WriteString(TrackingNumberPrefix)
	fmt.Fprintf(&b, "%06d", now.UnixMilli()%1_000_000)
	for i := 0; i < 4; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return b.String()
}

// Party is the sender or recipient contact of a shipment.
type Party struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// TrackingNumber is a shipment managed from the admin pages. The code is
// generated once at creation and never changes.
type TrackingNumber struct {
	ID                    string          `json:"id"`
	TrackingNumber        string          `json:"trackingNumber"`
	Status                shipping.Status `json:"status"`
	ProductID             string          `json:"productId"`
	SenderLocationID      string          `json:"senderLocationId"`
	RecipientLocationID   string          `json:"recipientLocationId"`
	Recipient             Party           `json:"recipient"`
	Sender                Party           `json:"sender"`
	PickupDate            *time.Time      `json:"pickupDate,omitempty"`
	EstimatedDeliveryDate *time.Time      `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time      `json:"actualDeliveryDate,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	SpecialHandling       []string        `json:"specialHandling"`
	AssignedAgent         string          `json:"assignedAgent,omitempty"`
	CurrentLocation       string          `json:"currentLocation,omitempty"`
	Priority              Priority        `json:"priority"`
	Cost                  decimal.Decimal `json:"cost"`
	IsActive              bool            `json:"isActive"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
	CreatedBy             string          `json:"createdBy,omitempty"`
}

// Clone returns a copy that shares no pointers or slices with t.
func (t TrackingNumber) Clone() TrackingNumber {
	t.SpecialHandling = slices.Clone(t.SpecialHandling)
	t.PickupDate = cloneTime(t.PickupDate)
	t.EstimatedDeliveryDate = cloneTime(t.EstimatedDeliveryDate)
	t.ActualDeliveryDate = cloneTime(t.ActualDeliveryDate)
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// TrackingNumberPatch is a partial update; the code itself cannot be patched.
type TrackingNumberPatch struct {
	Status                *shipping.Status `json:"status,omitempty"`
	ProductID             *string          `json:"productId,omitempty"`
	SenderLocationID      *string          `json:"senderLocationId,omitempty"`
	RecipientLocationID   *string          `json:"recipientLocationId,omitempty"`
	Recipient             *Party           `json:"recipient,omitempty"`
	Sender                *Party           `json:"sender,omitempty"`
	PickupDate            *time.Time       `json:"pickupDate,omitempty"`
	EstimatedDeliveryDate *time.Time       `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time       `json:"actualDeliveryDate,omitempty"`
	Notes                 *string          `json:"notes,omitempty"`
	SpecialHandling       *[]string        `json:"specialHandling,omitempty"`
	AssignedAgent         *string          `json:"assignedAgent,omitempty"`
	CurrentLocation       *string          `json:"currentLocation,omitempty"`
	Priority              *Priority        `json:"priority,omitempty"`
	Cost                  *decimal.Decimal `json:"cost,omitempty"`
	IsActive              *bool            `json:"isActive,omitempty"`
}

// Apply merges the patch into t.
func (patch TrackingNumberPatch) Apply(t *TrackingNumber) {
	setIf(&t.Status, patch.Status)
	setIf(&t.ProductID, patch.ProductID)
	setIf(&t.SenderLocationID, patch.SenderLocationID)
	setIf(&t.RecipientLocationID, patch.RecipientLocationID)
	setIf(&t.Recipient, patch.Recipient)
	setIf(&t.Sender, patch.Sender)
	if patch.PickupDate != nil {
		t.PickupDate = cloneTime(patch.PickupDate)
	}
	if patch.EstimatedDeliveryDate != nil {
		t.EstimatedDeliveryDate = cloneTime(patch.EstimatedDeliveryDate)
	}
	if patch.ActualDeliveryDate != nil {
		t.ActualDeliveryDate = cloneTime(patch.ActualDeliveryDate)
	}
	setIf(&t.Notes, patch.Notes)
	if patch.SpecialHandling != nil {
		t.SpecialHandling = slices.Clone(*patch.SpecialHandling)
	}
	setIf(&t.AssignedAgent, patch.AssignedAgent)
	setIf(&t.CurrentLocation, patch.CurrentLocation)
	setIf(&t.Priority, patch.Priority)
	setIf(&t.Cost, patch.Cost)
	setIf(&t.IsActive, patch.IsActive)
}
