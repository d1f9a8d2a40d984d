package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Demo records ensured by SeedInMemory.
const (
	DemoUserEmail     = "demo@courierportal.dev"
	DemoUserPassword  = "demo1234"
	ExistingUserEmail = "customer@courierportal.dev"
	ExistingPassword  = "customer1234"
	DemoTrackingNum   = "SC100001DEMO"
)

type seedUser struct {
	email    string
	password string
	name     string
	userType domain.UserType
}

var seedUsers = []seedUser{
	{email: DemoUserEmail, password: DemoUserPassword, name: "Demo User", userType: domain.UserTypeDemo},
	{email: ExistingUserEmail, password: ExistingPassword, name: "Jordan Customer", userType: domain.UserTypeExisting},
}

// SeedInMemory inserts the demo accounts and the demo package into the
// in-memory repository when they are missing. Calling it again is a no-op.
func (s *Store) SeedInMemory(ctx context.Context) (domain.SeedResult, error) {
	result := domain.SeedResult{SQLSeedFile: s.seedSQLPath}
	if s.seedSQLPath != "" {
		if _, err := os.Stat(s.seedSQLPath); err == nil {
			result.SQLSeedFilePresent = true
		}
	}

	now := s.now()
	var demoUserID string
	for _, su := range seedUsers {
		existing, err := s.memory.FindUserByEmail(ctx, su.email)
		if err != nil {
			return result, fmt.Errorf("service: failed to look up %s: %w", su.email, err)
		}
		if existing != nil {
			if su.userType == domain.UserTypeDemo {
				demoUserID = existing.ID
			}
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), s.passwordCost)
		if err != nil {
			return result, fmt.Errorf("service: failed to hash password: %w", err)
		}
		created, err := s.memory.CreateUser(ctx, &domain.User{
			Email:        su.email,
			PasswordHash: string(hash),
			Name:         su.name,
			UserType:     su.userType,
			Preferences:  domain.Preferences{Notifications: true, Language: "en", Theme: "light"},
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return result, fmt.Errorf("service: failed to seed %s: %w", su.email, err)
		}
		if su.userType == domain.UserTypeDemo {
			demoUserID = created.ID
		}
		result.UsersSeeded++
	}

	existing, err := s.memory.FindPackageByTrackingNumber(ctx, DemoTrackingNum)
	if err != nil {
		return result, fmt.Errorf("service: failed to look up demo package: %w", err)
	}
	if existing == nil {
		if err := s.memory.SavePackage(ctx, demoPackage(demoUserID, now)); err != nil {
			return result, fmt.Errorf("service: failed to seed demo package: %w", err)
		}
		result.PackagesSeeded++
	}
	return result, nil
}

func demoPackage(userID string, now time.Time) *domain.Package {
	created := now.Add(-48 * time.Hour)
	eta := now.Add(24 * time.Hour)
	return &domain.Package{
		TrackingNumber: DemoTrackingNum,
		UserID:         userID,
		Status:         shipping.StatusInTransit,
		Service:        "Express",
		Weight:         2.4,
		Dimensions:     "30x20x15 cm",
		Sender: domain.Address{
			Name: "Courier Portal Warehouse", Street: "100 Logistics Way",
			City: "Chicago", State: "IL", ZipCode: "60601", Country: "US",
		},
		Recipient: domain.Address{
			Name: "Demo User", Street: "42 Market Street",
			City: "Austin", State: "TX", ZipCode: "73301", Country: "US",
		},
		Cost: decimal.RequireFromString("24.99"),
		Events: []domain.TrackingEvent{
			{Timestamp: created, Status: shipping.StatusPending, Location: "Chicago, IL", Description: "Shipping label created"},
			{Timestamp: created.Add(6 * time.Hour), Status: shipping.StatusPickedUp, Location: "Chicago, IL", Description: "Package picked up"},
			{Timestamp: created.Add(30 * time.Hour), Status: shipping.StatusInTransit, Location: "Dallas, TX", Description: "Arrived at sort facility"},
		},
		EstimatedDelivery: &eta,
		CreatedAt:         created,
		UpdatedAt:         created.Add(30 * time.Hour),
	}
}
