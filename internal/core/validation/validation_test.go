package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Status   string `json:"status,omitempty" validate:"omitempty,shipment_status"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     loginRequest
		wantErr string
	}{
		{name: "Valid", req: loginRequest{Email: "demo@courierportal.dev", Password: "demo1234"}},
		{name: "MissingEmail", req: loginRequest{Password: "demo1234"}, wantErr: "email: this field is required"},
		{name: "BadEmail", req: loginRequest{Email: "nope", Password: "demo1234"}, wantErr: "email: invalid email format"},
		{name: "ShortPassword", req: loginRequest{Email: "a@b.co", Password: "x"}, wantErr: "password: must be at least 6 characters"},
		{name: "ValidStatus", req: loginRequest{Email: "a@b.co", Password: "secret", Status: "in_transit"}},
		{name: "BadStatus", req: loginRequest{Email: "a@b.co", Password: "secret", Status: "lost"}, wantErr: "status: must be a valid shipment status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
