package handler

import (
	"errors"
	"net/http"

	"courier-portal/internal/core/logger"
	"courier-portal/internal/core/server"
	"courier-portal/internal/core/validation"
	"courier-portal/internal/features/shipments/domain"
	"courier-portal/internal/features/shipments/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles login and registration.
type AuthHandler struct {
	accounts  ports.AccountService
	validator *validation.Validator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts ports.AccountService, v *validation.Validator) *AuthHandler {
	return &AuthHandler{accounts: accounts, validator: v}
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	Name     string          `json:"name" validate:"required,max=120"`
	UserType domain.UserType `json:"userType,omitempty" validate:"omitempty,oneof=new demo existing"`
}

// Login handles POST /api/auth/login.
// @Summary Log in
// @Description Verifies the password and records the login time.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} server.Response{data=domain.User}
// @Failure 400 {object} server.Response
// @Failure 401 {object} server.Response
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.accounts.Authenticate(c.Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return server.Fail(c, http.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		logger.Get().Error("Failed to authenticate", zap.Error(err))
		return server.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return server.OK(c, http.StatusOK, user)
}

// Register handles POST /api/auth/register.
// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body RegisterRequest true "Account"
// @Success 201 {object} server.Response{data=domain.User}
// @Failure 400 {object} server.Response
// @Failure 409 {object} server.Response
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return server.Fail(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.accounts.Register(c.Context(), domain.Registration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		UserType: req.UserType,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return server.Fail(c, http.StatusConflict, "Email already registered")
	}
	if err != nil {
		logger.Get().Error("Failed to register user", zap.Error(err))
		return server.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return server.OK(c, http.StatusCreated, user)
}
