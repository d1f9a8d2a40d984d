package domain

import "time"

// UserType classifies portal accounts.
type UserType string

const (
	UserTypeNew      UserType = "new"
	UserTypeDemo     UserType = "demo"
	UserTypeExisting UserType = "existing"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeNew || t == UserTypeDemo || t == UserTypeExisting
}

// Preferences holds per-user portal settings.
type Preferences struct {
	Notifications bool   `json:"notifications"`
	Language      string `json:"language,omitempty"`
	Theme         string `json:"theme,omitempty"`
}

// User is a portal account. The password is only ever kept as a bcrypt hash.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Name         string      `json:"name"`
	UserType     UserType    `json:"userType"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	LastLogin    *time.Time  `json:"lastLogin,omitempty"`
}

// UserPatch carries a partial user update; nil fields are left untouched.
type UserPatch struct {
	Name         *string      `json:"name,omitempty"`
	UserType     *UserType    `json:"userType,omitempty"`
	Preferences  *Preferences `json:"preferences,omitempty"`
	PasswordHash *string      `json:"-"`
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.UserType != nil {
		u.UserType = *p.UserType
	}
	if p.Preferences != nil {
		u.Preferences = *p.Preferences
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
}

// Clone returns a copy that shares no pointers with u.
func (u User) Clone() *User {
	c := u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
