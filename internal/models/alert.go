package models

import "time"

// ComplianceAlert is a recorded compliance notice for a company, usually
// raised by the background expiry monitor. Alerts are never deleted;
// their status only moves forward (open → acknowledged → resolved).
type ComplianceAlert struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	EmployeeID  *string   `json:"employeeId,omitempty"`
	AlertType   string    `json:"alertType"` // expiry, missing_document, status_change
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Status      string    `json:"status"` // open, acknowledged, resolved
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AlertEmployee is the minimal employee context attached to an alert.
type AlertEmployee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AlertWithEmployee includes employee context plus the presentation icon
// derived from the alert type.
type AlertWithEmployee struct {
	ComplianceAlert
	Employee *AlertEmployee `json:"employee,omitempty"`
	Icon     string         `json:"icon"` // clock, file, warning, bell
}

// CreateAlertRequest holds the fields for raising an alert manually.
// New alerts always start with status "open".
type CreateAlertRequest struct {
	EmployeeID  *string `json:"employeeId,omitempty"`
	AlertType   string  `json:"alertType,omitempty"` // defaults to "expiry"
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

// UpdateAlertStatusRequest carries a status transition for an alert.
type UpdateAlertStatusRequest struct {
	Status string `json:"status"`
}

// ValidAlertTypes lists the accepted alert type values.
var ValidAlertTypes = map[string]bool{
	"expiry":           true,
	"missing_document": true,
	"status_change":    true,
}

// alertStatusRank orders alert statuses along their lifecycle so that
// transitions can be checked for direction. open → acknowledged →
// resolved, or open → resolved directly; never backward.
var alertStatusRank = map[string]int{
	"open":         1,
	"acknowledged": 2,
	"resolved":     3,
}

// Validate checks the create request.
func (r *CreateAlertRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.AlertType != "" && !ValidAlertTypes[r.AlertType] {
		errors["alertType"] = "Alert type must be 'expiry', 'missing_document', or 'status_change'"
	}

	return errors
}

// Validate checks that the requested status is a known value.
func (r *UpdateAlertStatusRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if alertStatusRank[r.Status] == 0 {
		errors["status"] = "Status must be 'open', 'acknowledged', or 'resolved'"
	}

	return errors
}

// CanTransitionAlertStatus reports whether moving an alert from one
// status to another is allowed. Same-status updates are permitted (they
// are no-ops); backward moves are not.
func CanTransitionAlertStatus(from, to string) bool {
	fromRank, ok := alertStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := alertStatusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}
