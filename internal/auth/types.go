package auth

import "time"

// Built-in account roles. New sign-ups always start as patients; the admin
// role is granted out of band.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// User is the persisted credential record. PasswordHash is excluded from
// serialization and must never appear in logs or responses.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CitizenID    string    `json:"citizenId"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FullName joins the user's names for mail templates.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Sanitized returns a copy safe to hand to callers: the hash field is cleared
// on top of being unexported from JSON.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}
