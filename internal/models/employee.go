package models

import "time"

// Employee represents a TCN (third-country national) employee record.
// Every employee belongs to exactly one company (tenant).
type Employee struct {
	ID                  string    `json:"id"`
	CompanyID           string    `json:"companyId"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Email               *string   `json:"email,omitempty"`
	Phone               *string   `json:"phone,omitempty"`
	Nationality         *string   `json:"nationality,omitempty"`
	PassportNumber      string    `json:"passportNumber"`
	PassportExpiry      *string   `json:"passportExpiry,omitempty"`
	DateOfBirth         *string   `json:"dateOfBirth,omitempty"`
	Position            *string   `json:"position,omitempty"`
	Department          *string   `json:"department,omitempty"`
	EmploymentStartDate *string   `json:"employmentStartDate,omitempty"`
	EmploymentEndDate   *string   `json:"employmentEndDate,omitempty"`
	Status              string    `json:"status"` // active, pending, inactive, on_leave, terminated
	Notes               *string   `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// EmployeeWithVisas bundles an employee with all of their visa records.
// The visas collection is unordered and may be empty.
type EmployeeWithVisas struct {
	Employee
	Visas []Visa `json:"visas"`
}

// EmployeeWithCompliance decorates an employee with fields COMPUTED on
// every read by the compliance engine and never stored in the database.
type EmployeeWithCompliance struct {
	EmployeeWithVisas

	EffectiveStatus  string  `json:"effectiveStatus"`            // "expired" | "expiring_soon" | "valid" | "no_record"
	DaysUntilExpiry  *int    `json:"daysUntilExpiry,omitempty"`  // nil when no active visa
	ActiveVisaID     *string `json:"activeVisaId,omitempty"`
	ActiveVisaType   *string `json:"activeVisaType,omitempty"`
	ActiveVisaExpiry *string `json:"activeVisaExpiry,omitempty"`
}

// CreateEmployeeRequest holds the fields needed to register an employee.
type CreateEmployeeRequest struct {
	FirstName           string  `json:"firstName"`
	LastName            string  `json:"lastName"`
	Email               *string `json:"email,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	Nationality         *string `json:"nationality,omitempty"`
	PassportNumber      string  `json:"passportNumber"`
	PassportExpiry      *string `json:"passportExpiry,omitempty"`
	DateOfBirth         *string `json:"dateOfBirth,omitempty"`
	Position            *string `json:"position,omitempty"`
	Department          *string `json:"department,omitempty"`
	EmploymentStartDate *string `json:"employmentStartDate,omitempty"`
	Status              string  `json:"status,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

// UpdateEmployeeRequest holds the fields that can be partially updated.
type UpdateEmployeeRequest struct {
	FirstName           *string `json:"firstName,omitempty"`
	LastName            *string `json:"lastName,omitempty"`
	Email               *string `json:"email,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	Nationality         *string `json:"nationality,omitempty"`
	PassportNumber      *string `json:"passportNumber,omitempty"`
	PassportExpiry      *string `json:"passportExpiry,omitempty"`
	DateOfBirth         *string `json:"dateOfBirth,omitempty"`
	Position            *string `json:"position,omitempty"`
	Department          *string `json:"department,omitempty"`
	EmploymentStartDate *string `json:"employmentStartDate,omitempty"`
	EmploymentEndDate   *string `json:"employmentEndDate,omitempty"`
	Status              *string `json:"status,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

// ValidEmployeeStatuses lists the accepted employment status values.
var ValidEmployeeStatuses = map[string]bool{
	"active":     true,
	"pending":    true,
	"inactive":   true,
	"on_leave":   true,
	"terminated": true,
}

// Validate checks if the create request contains valid data.
func (r *CreateEmployeeRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.FirstName) < 1 || len(r.FirstName) > 100 {
		errors["firstName"] = "First name must be between 1 and 100 characters"
	}
	if len(r.LastName) < 1 || len(r.LastName) > 100 {
		errors["lastName"] = "Last name must be between 1 and 100 characters"
	}
	if r.PassportNumber == "" {
		errors["passportNumber"] = "Passport number is required"
	}
	if r.Status != "" && !ValidEmployeeStatuses[r.Status] {
		errors["status"] = "Status must be 'active', 'pending', 'inactive', 'on_leave', or 'terminated'"
	}

	return errors
}
