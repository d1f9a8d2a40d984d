package handler

import (
	"net/http"

	"courier-portal/internal/core/logger"
	"courier-portal/internal/core/server"
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/core/validation"
	"courier-portal/internal/features/shipments/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PackageHandler handles package tracking requests.
type PackageHandler struct {
	packages  ports.PackageReader
	tracker   ports.PackageTracker
	accounts  ports.AccountService
	validator *validation.Validator
}

// NewPackageHandler creates a new PackageHandler.
func NewPackageHandler(packages ports.PackageReader, tracker ports.PackageTracker, accounts ports.AccountService, v *validation.Validator) *PackageHandler {
	return &PackageHandler{
		packages:  packages,
		tracker:   tracker,
		accounts:  accounts,
		validator: v,
	}
}

// UpdateStatusRequest represents a status transition.
type UpdateStatusRequest struct {
	Status shipping.Status `json:"status" validate:"required,shipment_status"`
	Reason string          `json:"reason,omitempty" validate:"max=500"`
}

// AddEventRequest represents a free-form tracking event.
type AddEventRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	Location    string `json:"location,omitempty" validate:"max=255"`
}

// ListPackages handles GET /api/packages.
// @Summary List packages
// @Tags Packages
// @Produce json
// @Success 200 {object} server.Response{data=[]domain.Package}
// @Router /api/packages [get]
func (h *PackageHandler) ListPackages(c *fiber.Ctx) error {
	pkgs, err := h.packages.ListPackages(c.Context())
	if err != nil {
		logger.Get().Error("Failed to list packages", zap.Error(err))
		return server.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return server.OK(c, http.StatusOK, pkgs)
}

// GetPackage handles GET /api/packages/:number.
// @Summary Get a package by tracking number
// @Tags Packages
// @Produce json
// @Param number path string true "Tracking number"
// @Success 200 {object} server.Response{data=domain.Package}
// @Failure 404 {object} server.Response
// @Router /api/packages/{number} [get]
func (h *PackageHandler) GetPackage(c *fiber.Ctx) error {
	return h.respondWithPackage(c, http.StatusOK)
}

// UpdateStatus handles POST /api/packages/:number/status.
// @Summary Change a package status
// @Description Appends a tracking event and broadcasts package_status_changed.
// @Tags Packages
// @Accept json
// @Produce json
// @Param number path string true "Tracking number"
// @Param update body UpdateStatusRequest true "New status"
// @Success 200 {object} server.Response{data=domain.Package}
// @Failure 400 {object} server.Response
// @Failure 404 {object} server.Response
// @Router /api/packages/{number}/status [post]
func (h *PackageHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	if !h.tracker.UpdatePackageStatus(c.Context(), c.Params("number"), req.Status, req.Reason) {
		return server.Fail(c, http.StatusNotFound, "Package not found")
	}
	return h.respondWithPackage(c, http.StatusOK)
}

// AddEvent handles POST /api/packages/:number/events.
// @Summary Append a tracking event
// @Tags Packages
// @Accept json
// @Produce json
// @Param number path string true "Tracking number"
// @Param event body AddEventRequest true "Event"
// @Success 201 {object} server.Response{data=domain.Package}
// @Failure 400 {object} server.Response
// @Failure 404 {object} server.Response
// @Router /api/packages/{number}/events [post]
func (h *PackageHandler) AddEvent(c *fiber.Ctx) error {
	var req AddEventRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	if !h.tracker.AddPackageEvent(c.Context(), c.Params("number"), req.Description, req.Location) {
		return server.Fail(c, http.StatusNotFound, "Package not found")
	}
	return h.respondWithPackage(c, http.StatusCreated)
}

// Stats handles GET /api/packages/stats.
// @Summary Package counts per status
// @Tags Packages
// @Produce json
// @Success 200 {object} server.Response{data=domain.PackageStats}
// @Router /api/packages/stats [get]
func (h *PackageHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.tracker.GetPackageStats(c.Context())
	if err != nil {
		logger.Get().Error("Failed to compute package stats", zap.Error(err))
		return server.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return server.OK(c, http.StatusOK, stats)
}

// Seed handles POST /api/admin/seed.
// @Summary Seed demo accounts and packages
// @Description Idempotent; reports whether the SQL seed file exists.
// @Tags Admin
// @Produce json
// @Success 200 {object} server.Response{data=domain.SeedResult}
// @Router /api/admin/seed [post]
func (h *PackageHandler) Seed(c *fiber.Ctx) error {
	result, err := h.accounts.SeedInMemory(c.Context())
	if err != nil {
		logger.Get().Error("Failed to seed store", zap.Error(err))
		return server.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	if result.PackagesSeeded > 0 {
		h.tracker.Persist(c.Context())
	}
	return server.OK(c, http.StatusOK, result)
}

func (h *PackageHandler) respondWithPackage(c *fiber.Ctx, status int) error {
	pkg, err := h.packages.FindPackageByTrackingNumber(c.Context(), c.Params("number"))
	if err != nil {
		logger.Get().Error("Failed to get package", zap.String("tracking_number", c.Params("number")), zap.Error(err))
		return server.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	if pkg == nil {
		return server.Fail(c, http.StatusNotFound, "Package not found")
	}
	return server.OK(c, status, pkg)
}
