package models

import "time"

// User represents an authenticated user. Each user belongs to exactly
// one company; the linkage is protected by a unique email constraint so
// two concurrent registrations cannot create two accounts for the same
// address.
type User struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"companyId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"` // admin, manager, viewer
	Phone        *string   `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidRoles lists all valid role strings.
var ValidRoles = map[string]bool{
	"viewer":  true,
	"manager": true,
	"admin":   true,
}

// RegisterRequest contains the fields needed to create a new account.
// The company is auto-provisioned at registration time; the first user
// of a company is its admin.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
}

// Validate checks that all required registration fields are present.
func (r *RegisterRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if len(r.Password) < 6 {
		errors["password"] = "Password must be at least 6 characters"
	}
	if r.FullName == "" {
		errors["fullName"] = "Full name is required"
	}
	if r.CompanyName == "" {
		errors["companyName"] = "Company name is required"
	}

	return errors
}

// LoginRequest contains the credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that login credentials are present.
func (r *LoginRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

// AuthResponse is sent back after successful login/registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
