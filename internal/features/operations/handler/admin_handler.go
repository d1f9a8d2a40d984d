package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"courier-portal/internal/core/server"
	"courier-portal/internal/core/shipping"
	"courier-portal/internal/core/validation"
	"courier-portal/internal/features/operations/domain"
	"courier-portal/internal/features/operations/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Actions accepted by the admin POST endpoints.
const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionAddActivity = "add_activity"
)

// AdminHandler serves the operations admin pages.
type AdminHandler struct {
	store     ports.Store
	validator *validation.Validator
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store ports.Store, v *validation.Validator) *AdminHandler {
	return &AdminHandler{store: store, validator: v}
}

// ActionRequest is the envelope of every admin mutation.
type ActionRequest struct {
	Action string          `json:"action" validate:"required,oneof=create update delete add_activity"`
	ID     string          `json:"id,omitempty" validate:"required_if=Action update,required_if=Action delete"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// CreateProductRequest is the data of a product create action.
type CreateProductRequest struct {
	SKU         string            `json:"sku" validate:"required,max=64"`
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description" validate:"max=1000"`
	Category    string            `json:"category" validate:"max=100"`
	Dimensions  domain.Dimensions `json:"dimensions"`
	Weight      domain.Weight     `json:"weight"`
	Pricing     domain.Pricing    `json:"pricing"`
	IsActive    *bool             `json:"isActive"`
	CreatedBy   string            `json:"createdBy"`
}

// CreateLocationRequest is the data of a location create action.
type CreateLocationRequest struct {
	Name           string                `json:"name" validate:"required,max=255"`
	Type           domain.LocationType   `json:"type" validate:"required,oneof=pickup dropoff hub warehouse"`
	Address        domain.Address        `json:"address"`
	Coordinates    domain.Coordinates    `json:"coordinates"`
	Contact        domain.Contact        `json:"contact"`
	OperatingHours domain.OperatingHours `json:"operatingHours"`
	Capacity       domain.Capacity       `json:"capacity"`
	ServicedZones  []string              `json:"servicedZones"`
	IsActive       *bool                 `json:"isActive"`
	CreatedBy      string                `json:"createdBy"`
}

// CreateTrackingNumberRequest is the data of a tracking number create action.
type CreateTrackingNumberRequest struct {
	Status                shipping.Status `json:"status" validate:"omitempty,shipment_status"`
	ProductID             string          `json:"productId"`
	SenderLocationID      string          `json:"senderLocationId"`
	RecipientLocationID   string          `json:"recipientLocationId"`
	Recipient             domain.Party    `json:"recipient"`
	Sender                domain.Party    `json:"sender"`
	PickupDate            *time.Time      `json:"pickupDate"`
	EstimatedDeliveryDate *time.Time      `json:"estimatedDeliveryDate"`
	Notes                 string          `json:"notes" validate:"max=1000"`
	SpecialHandling       []string        `json:"specialHandling"`
	AssignedAgent         string          `json:"assignedAgent"`
	CurrentLocation       string          `json:"currentLocation"`
	Priority              domain.Priority `json:"priority" validate:"omitempty,oneof=standard express overnight"`
	Cost                  decimal.Decimal `json:"cost"`
	IsActive              *bool           `json:"isActive"`
	CreatedBy             string          `json:"createdBy"`
}

// AddActivityRequest is the data of an add_activity action.
type AddActivityRequest struct {
	TrackingNumberID string              `json:"trackingNumberId" validate:"required_without=TrackingNumber"`
	TrackingNumber   string              `json:"trackingNumber" validate:"required_without=TrackingNumberID"`
	ActivityType     domain.ActivityType `json:"activityType"`
	Status           shipping.Status     `json:"status" validate:"omitempty,shipment_status"`
	Location         string              `json:"location"`
	LocationID       string              `json:"locationId"`
	Description      string              `json:"description" validate:"required,max=500"`
	Coordinates      *domain.Coordinates `json:"coordinates"`
	CreatedBy        string              `json:"createdBy"`
	Metadata         map[string]any      `json:"metadata"`
}

// DeleteResult is returned by successful delete actions.
type DeleteResult struct {
	ID string `json:"id"`
}

var errInvalidBody = errors.New("invalid request body")

// TrackingNumbers handles GET /api/admin/tracking-numbers.
// @Summary List tracking numbers
// @Description Filters by id, trackingNumber, status or free text q, in that order of precedence.
// @Tags Admin
// @Produce json
// @Param id query string false "Tracking number id"
// @Param trackingNumber query string false "Tracking code"
// @Param status query string false "Status"
// @Param q query string false "Search text"
// @Success 200 {object} server.Response{data=[]domain.TrackingNumber}
// @Failure 400 {object} server.Response
// @Router /api/admin/tracking-numbers [get]
func (h *AdminHandler) TrackingNumbers(c *fiber.Ctx) error {
	switch {
	case c.Query("id") != "":
		tn, ok := h.store.GetTrackingNumber(c.Query("id"))
		return found(c, tn, ok, "Tracking number not found")
	case c.Query("trackingNumber") != "":
		tn, ok := h.store.GetTrackingNumberByCode(c.Query("trackingNumber"))
		return found(c, tn, ok, "Tracking number not found")
	case c.Query("status") != "":
		status, err := shipping.ParseStatus(c.Query("status"))
		if err != nil {
			return server.Fail(c, http.StatusBadRequest, err.Error())
		}
		return server.OK(c, http.StatusOK, h.store.TrackingNumbersByStatus(status))
	case c.Query("q") != "":
		return server.OK(c, http.StatusOK, h.store.SearchTrackingNumbers(c.Query("q")))
	}
	return server.OK(c, http.StatusOK, h.store.ListTrackingNumbers())
}

// MutateTrackingNumbers handles POST /api/admin/tracking-numbers.
// @Summary Create, update or delete a tracking number, or add an activity
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body ActionRequest true "Action"
// @Success 200 {object} server.Response
// @Success 201 {object} server.Response
// @Failure 400 {object} server.Response
// @Failure 404 {object} server.Response
// @Router /api/admin/tracking-numbers [post]
func (h *AdminHandler) MutateTrackingNumbers(c *fiber.Ctx) error {
	req, err := h.parseAction(c)
	if err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	switch req.Action {
	case ActionCreate:
		var in CreateTrackingNumberRequest
		if err := h.decode(req, &in); err != nil {
			return server.Fail(c, http.StatusBadRequest, err.Error())
		}
		created := h.store.CreateTrackingNumber(domain.TrackingNumber{
			Status:                in.Status,
			ProductID:             in.ProductID,
			SenderLocationID:      in.SenderLocationID,
			RecipientLocationID:   in.RecipientLocationID,
			Recipient:             in.Recipient,
			Sender:                in.Sender,
			PickupDate:            in.PickupDate,
			EstimatedDeliveryDate: in.EstimatedDeliveryDate,
			Notes:                 in.Notes,
			SpecialHandling:       in.SpecialHandling,
			AssignedAgent:         in.AssignedAgent,
			CurrentLocation:       in.CurrentLocation,
			Priority:              in.Priority,
			Cost:                  in.Cost,
			IsActive:              activeOrDefault(in.IsActive),
			CreatedBy:             in.CreatedBy,
		})
		return server.OK(c, http.StatusCreated, created)

	case ActionUpdate:
		var patch domain.TrackingNumberPatch
		if err := h.decode(req, &patch); err != nil {
			return server.Fail(c, http.StatusBadRequest, err.Error())
		}
		if patch.Status != nil && !patch.Status.Valid() {
			return server.Fail(c, http.StatusBadRequest, "status: must be a valid shipment status")
		}
		if patch.Priority != nil && !patch.Priority.Valid() {
			return server.Fail(c, http.StatusBadRequest, "priority: must be one of: standard express overnight")
		}
		updated, ok := h.store.UpdateTrackingNumber(req.ID, patch)
		return updatedOr404(c, updated, ok, "Tracking number not found")

	case ActionDelete:
		return deletedOr404(c, req.ID, h.store.DeleteTrackingNumber(req.ID), "Tracking number not found")

	case ActionAddActivity:
		return h.addActivity(c, req)
	}
	return server.Fail(c, http.StatusBadRequest, "Unsupported action")
}

// Products handles GET /api/admin/products.
// @Summary List products
// @Tags Admin
// @Produce json
// @Param id query string false "Product id"
// @Param q query string false "Search text"
// @Success 200 {object} server.Response{data=[]domain.Product}
// @Router /api/admin/products [get]
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	switch {
	case c.Query("id") != "":
		p, ok := h.store.GetProduct(c.Query("id"))
		return found(c, p, ok, "Product not found")
	case c.Query("q") != "":
		return server.OK(c, http.StatusOK, h.store.SearchProducts(c.Query("q")))
	}
	return server.OK(c, http.StatusOK, h.store.ListProducts())
}

// MutateProducts handles POST /api/admin/products.
// @Summary Create, update or delete a product
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body ActionRequest true "Action"
// @Success 200 {object} server.Response
// @Success 201 {object} server.Response{data=domain.Product}
// @Failure 400 {object} server.Response
// @Failure 404 {object} server.Response
// @Failure 409 {object} server.Response
// @Router /api/admin/products [post]
func (h *AdminHandler) MutateProducts(c *fiber.Ctx) error {
	req, err := h.parseAction(c)
	if err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	switch req.Action {
	case ActionCreate:
		var in CreateProductRequest
		if err := h.decode(req, &in); err != nil {
			return server.Fail(c, http.StatusBadRequest, err.Error())
		}
		created, err := h.store.CreateProduct(domain.Product{
			SKU:         in.SKU,
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			Dimensions:  in.Dimensions,
			Weight:      in.Weight,
			Pricing:     in.Pricing,
			IsActive:    activeOrDefault(in.IsActive),
			CreatedBy:   in.CreatedBy,
		})
		if err != nil {
			return server.Fail(c, http.StatusConflict, err.Error())
		}
		return server.OK(c, http.StatusCreated, created)

	case ActionUpdate:
		var patch domain.ProductPatch
		if err := h.decode(req, &patch); err != nil {
			return server.Fail(c, http.StatusBadRequest, err.Error())
		}
		updated, ok, err := h.store.UpdateProduct(req.ID, patch)
		if err != nil {
			return server.Fail(c, http.StatusConflict, err.Error())
		}
		return updatedOr404(c, updated, ok, "Product not found")

	case ActionDelete:
		return deletedOr404(c, req.ID, h.store.DeleteProduct(req.ID), "Product not found")
	}
	return server.Fail(c, http.StatusBadRequest, "Unsupported action")
}

// Locations handles GET /api/admin/locations.
// @Summary List locations
// @Tags Admin
// @Produce json
// @Param id query string false "Location id"
// @Param type query string false "Location type"
// @Param q query string false "Search text"
// @Success 200 {object} server.Response{data=[]domain.Location}
// @Failure 400 {object} server.Response
// @Router /api/admin/locations [get]
func (h *AdminHandler) Locations(c *fiber.Ctx) error {
	switch {
	case c.Query("id") != "":
		l, ok := h.store.GetLocation(c.Query("id"))
		return found(c, l, ok, "Location not found")
	case c.Query("type") != "":
		t := domain.LocationType(c.Query("type"))
		if !t.Valid() {
			return server.Fail(c, http.StatusBadRequest, "type: must be one of: pickup dropoff hub warehouse")
		}
		return server.OK(c, http.StatusOK, h.store.LocationsByType(t))
	case c.Query("q") != "":
		return server.OK(c, http.StatusOK, h.store.SearchLocations(c.Query("q")))
	}
	return server.OK(c, http.StatusOK, h.store.ListLocations())
}

// MutateLocations handles POST /api/admin/locations.
// @Summary Create, update or delete a location
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body ActionRequest true "Action"
// @Success 200 {object} server.Response
// @Success 201 {object} server.Response{data=domain.Location}
// @Failure 400 {object} server.Response
// @Failure 404 {object} server.Response
// @Failure 422 {object} server.Response
// @Router /api/admin/locations [post]
func (h *AdminHandler) MutateLocations(c *fiber.Ctx) error {
	req, err := h.parseAction(c)
	if err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	switch req.Action {
	case ActionCreate:
		var in CreateLocationRequest
		if err := h.decode(req, &in); err != nil {
			return server.Fail(c, http.StatusBadRequest, err.Error())
		}
		created, err := h.store.CreateLocation(domain.Location{
			Name:           in.Name,
			Type:           in.Type,
			Address:        in.Address,
			Coordinates:    in.Coordinates,
			Contact:        in.Contact,
			OperatingHours: in.OperatingHours,
			Capacity:       in.Capacity,
			ServicedZones:  in.ServicedZones,
			IsActive:       activeOrDefault(in.IsActive),
			CreatedBy:      in.CreatedBy,
		})
		if err != nil {
			return server.Fail(c, http.StatusUnprocessableEntity, err.Error())
		}
		return server.OK(c, http.StatusCreated, created)

	case ActionUpdate:
		var patch domain.LocationPatch
		if err := h.decode(req, &patch); err != nil {
			return server.Fail(c, http.StatusBadRequest, err.Error())
		}
		if patch.Type != nil && !patch.Type.Valid() {
			return server.Fail(c, http.StatusBadRequest, "type: must be one of: pickup dropoff hub warehouse")
		}
		updated, ok, err := h.store.UpdateLocation(req.ID, patch)
		if err != nil {
			return server.Fail(c, http.StatusUnprocessableEntity, err.Error())
		}
		return updatedOr404(c, updated, ok, "Location not found")

	case ActionDelete:
		return deletedOr404(c, req.ID, h.store.DeleteLocation(req.ID), "Location not found")
	}
	return server.Fail(c, http.StatusBadRequest, "Unsupported action")
}

// Activities handles GET /api/admin/activities.
// @Summary List tracking activities
// @Description With trackingNumber the timeline is chronological; otherwise newest first, bounded by limit.
// @Tags Admin
// @Produce json
// @Param trackingNumber query string false "Tracking number id or code"
// @Param limit query int false "Maximum number of activities"
// @Success 200 {object} server.Response{data=[]domain.TrackingActivity}
// @Failure 400 {object} server.Response
// @Router /api/admin/activities [get]
func (h *AdminHandler) Activities(c *fiber.Ctx) error {
	if ref := c.Query("trackingNumber"); ref != "" {
		return server.OK(c, http.StatusOK, h.store.ActivitiesFor(ref))
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return server.Fail(c, http.StatusBadRequest, "limit: must be a non-negative integer")
		}
		limit = n
	}
	return server.OK(c, http.StatusOK, h.store.RecentActivities(limit))
}

// MutateActivities handles POST /api/admin/activities. Only add_activity is accepted.
// @Summary Add a tracking activity
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body ActionRequest true "Action"
// @Success 201 {object} server.Response{data=domain.TrackingActivity}
// @Failure 400 {object} server.Response
// @Failure 404 {object} server.Response
// @Router /api/admin/activities [post]
func (h *AdminHandler) MutateActivities(c *fiber.Ctx) error {
	req, err := h.parseAction(c)
	if err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}
	if req.Action != ActionAddActivity && req.Action != ActionCreate {
		return server.Fail(c, http.StatusBadRequest, "Unsupported action")
	}
	return h.addActivity(c, req)
}

// Stats handles GET /api/admin/stats.
// @Summary Dashboard statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} server.Response{data=domain.DashboardStats}
// @Router /api/admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	return server.OK(c, http.StatusOK, h.store.GetDashboardStats())
}

// DeliveredToday handles GET /api/admin/delivered-today.
// @Summary Tracking numbers delivered since midnight
// @Tags Admin
// @Produce json
// @Success 200 {object} server.Response{data=[]domain.TrackingNumber}
// @Router /api/admin/delivered-today [get]
func (h *AdminHandler) DeliveredToday(c *fiber.Ctx) error {
	return server.OK(c, http.StatusOK, h.store.GetDeliveredToday())
}

func (h *AdminHandler) addActivity(c *fiber.Ctx, req ActionRequest) error {
	var in AddActivityRequest
	if err := h.decode(req, &in); err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	ref := in.TrackingNumberID
	if ref == "" {
		ref = in.TrackingNumber
	}
	if _, ok := h.store.GetTrackingNumber(ref); !ok {
		if _, ok := h.store.GetTrackingNumberByCode(ref); !ok {
			return server.Fail(c, http.StatusNotFound, "Tracking number not found")
		}
	}

	activity, err := h.store.AddActivity(domain.TrackingActivity{
		TrackingNumberID: in.TrackingNumberID,
		TrackingNumber:   in.TrackingNumber,
		ActivityType:     in.ActivityType,
		Status:           in.Status,
		Location:         in.Location,
		LocationID:       in.LocationID,
		Description:      in.Description,
		Coordinates:      in.Coordinates,
		CreatedBy:        in.CreatedBy,
		Metadata:         in.Metadata,
	})
	if err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}
	return server.OK(c, http.StatusCreated, activity)
}

func (h *AdminHandler) parseAction(c *fiber.Ctx) (ActionRequest, error) {
	var req ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return req, errInvalidBody
	}
	if err := h.validator.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

// decode unmarshals the action data into out and validates it.
func (h *AdminHandler) decode(req ActionRequest, out any) error {
	if len(req.Data) == 0 {
		return errors.New("data: this field is required")
	}
	if err := json.Unmarshal(req.Data, out); err != nil {
		return errors.New("data: invalid payload")
	}
	return h.validator.Struct(out)
}

func activeOrDefault(active *bool) bool {
	return active == nil || *active
}

func found[T any](c *fiber.Ctx, item T, ok bool, notFound string) error {
	if !ok {
		return server.Fail(c, http.StatusNotFound, notFound)
	}
	return server.OK(c, http.StatusOK, item)
}

func updatedOr404[T any](c *fiber.Ctx, updated *T, ok bool, notFound string) error {
	if !ok {
		return server.Fail(c, http.StatusNotFound, notFound)
	}
	return server.OK(c, http.StatusOK, updated)
}

func deletedOr404(c *fiber.Ctx, id string, ok bool, notFound string) error {
	if !ok {
		return server.Fail(c, http.StatusNotFound, notFound)
	}
	return server.OK(c, http.StatusOK, DeleteResult{ID: id})
}
