package models

import "time"

// Company represents a tenant account. All employee, visa, and alert
// data is scoped to exactly one company.
type Company struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	RegistrationNumber *string   `json:"registrationNumber,omitempty"` // Malta registry, e.g. "C12345"
	Address            *string   `json:"address,omitempty"`
	City               *string   `json:"city,omitempty"`
	PostalCode         *string   `json:"postalCode,omitempty"`
	Phone              *string   `json:"phone,omitempty"`
	Email              *string   `json:"email,omitempty"`
	SubscriptionTier   string    `json:"subscriptionTier"` // starter, professional, enterprise
	EmployeesLimit     int       `json:"employeesLimit"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// UpdateCompanyRequest holds the tenant settings that can be changed.
type UpdateCompanyRequest struct {
	Name               *string `json:"name,omitempty"`
	RegistrationNumber *string `json:"registrationNumber,omitempty"`
	Address            *string `json:"address,omitempty"`
	City               *string `json:"city,omitempty"`
	PostalCode         *string `json:"postalCode,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Email              *string `json:"email,omitempty"`
}

// Validate rejects an update that would blank the company name.
func (r *UpdateCompanyRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Company name cannot be empty"
	}

	return errors
}
