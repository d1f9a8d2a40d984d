package server

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	RayID   string `json:"rayId,omitempty"`
}

// OK writes a successful envelope.
func OK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}

// Fail writes an error envelope tagged with the request id.
func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(Response{Success: false, Error: msg, RayID: RequestID(c)})
}

// RequestID returns the id assigned by the requestid middleware.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(RequestIDHeader)
}
