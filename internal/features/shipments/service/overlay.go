package service

import "courier-portal/internal/features/shipments/ports"

// overlay routes every repository method to its own implementation, so an
// external backend can replace exactly the methods it supports.
type overlay struct {
	ports.UserByEmailFinder
	ports.UserByIDFinder
	ports.UserCreator
	ports.UserUpdater
	ports.LastLoginUpdater
	ports.PackageFinder
	ports.TrackingEventAppender
	ports.PackageLister
	ports.PackageSaver
}

// newOverlay starts from base and swaps in every method ext implements. It
// returns the names of the replaced methods.
func newOverlay(base ports.Repository, ext ports.Backend) (ports.Repository, []string) {
	o := &overlay{
		UserByEmailFinder:     base,
		UserByIDFinder:        base,
		UserCreator:           base,
		UserUpdater:           base,
		LastLoginUpdater:      base,
		PackageFinder:         base,
		TrackingEventAppender: base,
		PackageLister:         base,
		PackageSaver:          base,
	}
	if ext == nil {
		return o, nil
	}

	var replaced []string
	if v, ok := ext.(ports.UserByEmailFinder); ok {
		o.UserByEmailFinder = v
		replaced = append(replaced, "FindUserByEmail")
	}
	if v, ok := ext.(ports.UserByIDFinder); ok {
		o.UserByIDFinder = v
		replaced = append(replaced, "FindUserByID")
	}
	if v, ok := ext.(ports.UserCreator); ok {
		o.UserCreator = v
		replaced = append(replaced, "CreateUser")
	}
	if v, ok := ext.(ports.UserUpdater); ok {
		o.UserUpdater = v
		replaced = append(replaced, "UpdateUser")
	}
	if v, ok := ext.(ports.LastLoginUpdater); ok {
		o.LastLoginUpdater = v
		replaced = append(replaced, "UpdateLastLogin")
	}
	if v, ok := ext.(ports.PackageFinder); ok {
		o.PackageFinder = v
		replaced = append(replaced, "FindPackageByTrackingNumber")
	}
	if v, ok := ext.(ports.TrackingEventAppender); ok {
		o.TrackingEventAppender = v
		replaced = append(replaced, "AddTrackingEvent")
	}
	if v, ok := ext.(ports.PackageLister); ok {
		o.PackageLister = v
		replaced = append(replaced, "ListPackages")
	}
	if v, ok := ext.(ports.PackageSaver); ok {
		o.PackageSaver = v
		replaced = append(replaced, "SavePackage")
	}
	return o, replaced
}
