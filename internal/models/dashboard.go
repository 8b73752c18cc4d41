package models

import "time"

// ── Dashboard Metrics ────────────────────────────────────────────

// DashboardMetrics holds the fleet-wide compliance counters computed by
// the engine over the full roster with a single "now".
type DashboardMetrics struct {
	TotalEmployees   int    `json:"totalEmployees"`
	ExpiringSoon     int    `json:"expiringSoon"`
	Expired          int    `json:"expired"`
	ValidCount       int    `json:"validCount"`
	ComplianceHealth int    `json:"complianceHealth"` // 0..100, 100 for an empty roster
	HealthBand       string `json:"healthBand"`       // "good" | "warning" | "critical"
}

// ── Audit Log ────────────────────────────────────────────────────

// AuditLog records a write action against a tenant's data.
type AuditLog struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"companyId"`
	UserID     *string   `json:"userId,omitempty"`
	EntityType string    `json:"entityType"` // employee, visa, alert, company
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"` // create, update, delete
	Details    *string   `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
