package domain

import "errors"

var (
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// Registration carries a new account.
type Registration struct {
	Email    string
	Password string
	Name     string
	UserType UserType
}

// SeedResult reports what seeding added.
type SeedResult struct {
	UsersSeeded        int    `json:"usersSeeded"`
	PackagesSeeded     int    `json:"packagesSeeded"`
	SQLSeedFilePresent bool   `json:"sqlSeedFilePresent"`
	SQLSeedFile        string `json:"sqlSeedFile,omitempty"`
}
