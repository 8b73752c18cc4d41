package models

import "time"

// Visa represents a single work-permit or visa grant for an employee.
// issue_date <= expiry_date is expected but not enforced anywhere; the
// compliance engine tolerates malformed records without failing.
type Visa struct {
	ID                string    `json:"id"`
	EmployeeID        string    `json:"employeeId"`
	VisaType          string    `json:"visaType"` // e.g. "Single Permit", "Key Employee Initiative"
	CountryIssued     *string   `json:"countryIssued,omitempty"`
	IssueDate         string    `json:"issueDate"`
	ExpiryDate        string    `json:"expiryDate"` // calendar date, no time component
	PermitNumber      *string   `json:"permitNumber,omitempty"`
	Status            string    `json:"status"`                      // valid, expired, pending_renewal
	ApplicationStatus *string   `json:"applicationStatus,omitempty"` // legacy field, e.g. "active"
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// VisaEmployee is the minimal employee context attached to a visa row.
type VisaEmployee struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	PassportNumber string `json:"passportNumber"`
}

// VisaWithEmployee includes employee context plus computed expiry fields.
type VisaWithEmployee struct {
	Visa
	Employee        VisaEmployee `json:"employee"`
	EffectiveStatus string       `json:"effectiveStatus"`
	DaysUntilExpiry *int         `json:"daysUntilExpiry,omitempty"`
}

// CreateVisaRequest holds the fields for recording a new visa grant.
type CreateVisaRequest struct {
	EmployeeID    string  `json:"employeeId"`
	VisaType      string  `json:"visaType"`
	CountryIssued *string `json:"countryIssued,omitempty"`
	IssueDate     string  `json:"issueDate"`
	ExpiryDate    string  `json:"expiryDate"`
	PermitNumber  *string `json:"permitNumber,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// ValidVisaStatuses lists the accepted visa lifecycle status values.
var ValidVisaStatuses = map[string]bool{
	"valid":           true,
	"expired":         true,
	"pending_renewal": true,
}

// Validate checks if the create request contains valid data.
func (r *CreateVisaRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.EmployeeID == "" {
		errors["employeeId"] = "Employee is required"
	}
	if r.VisaType == "" {
		errors["visaType"] = "Visa type is required"
	}
	if r.IssueDate == "" {
		errors["issueDate"] = "Issue date is required"
	}
	if r.ExpiryDate == "" {
		errors["expiryDate"] = "Expiry date is required"
	}
	if r.Status != "" && !ValidVisaStatuses[r.Status] {
		errors["status"] = "Status must be 'valid', 'expired', or 'pending_renewal'"
	}

	return errors
}
