package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Gbun420/visatrack-malta/internal/cache"
	"github.com/Gbun420/visatrack-malta/internal/compliance"
	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

// DashboardHandler serves the fleet-wide compliance metrics. Results
// are cached per tenant; writes to employees and visas invalidate the
// entry.
type DashboardHandler struct {
	db    database.Service
	cache cache.Cache
	ttl   time.Duration
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(db database.Service, c cache.Cache, ttl time.Duration) *DashboardHandler {
	return &DashboardHandler{db: db, cache: c, ttl: ttl}
}

// GetMetrics aggregates compliance counters over the full roster with a
// single "now", so every counter reflects the same instant.
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())
	key := dashboardCacheKey(companyID)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if cached, ok := h.cache.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	rows, err := h.db.GetPool().Query(ctx,
		`SELECT e.id, v.id, v.employee_id, v.visa_type, v.issue_date::text, v.expiry_date::text,
		 v.status, v.application_status
		 FROM employees e
		 LEFT JOIN visas v ON v.employee_id = e.id
		 WHERE e.company_id = $1
		 ORDER BY e.id, v.created_at`, companyID)
	if err != nil {
		log.Printf("Error fetching roster for dashboard: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}
	defer rows.Close()

	var employees []models.EmployeeWithVisas
	index := map[string]int{}
	for rows.Next() {
		var employeeID string
		var visaID, visaEmployeeID, visaType, issueDate, expiryDate, status, appStatus *string
		err := rows.Scan(&employeeID, &visaID, &visaEmployeeID, &visaType,
			&issueDate, &expiryDate, &status, &appStatus)
		if err != nil {
			log.Printf("Error scanning roster row: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to compute metrics")
			return
		}

		i, ok := index[employeeID]
		if !ok {
			i = len(employees)
			index[employeeID] = i
			e := models.EmployeeWithVisas{Visas: []models.Visa{}}
			e.ID = employeeID
			employees = append(employees, e)
		}

		if visaID != nil {
			employees[i].Visas = append(employees[i].Visas, models.Visa{
				ID:                *visaID,
				EmployeeID:        *visaEmployeeID,
				VisaType:          *visaType,
				IssueDate:         *issueDate,
				ExpiryDate:        *expiryDate,
				Status:            *status,
				ApplicationStatus: appStatus,
			})
		}
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating roster: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}

	summary := compliance.Aggregate(employees, time.Now())
	metrics := models.DashboardMetrics{
		TotalEmployees:   summary.Total,
		ExpiringSoon:     summary.ExpiringSoon,
		Expired:          summary.Expired,
		ValidCount:       summary.ValidCount,
		ComplianceHealth: summary.ComplianceHealth,
		HealthBand:       compliance.HealthBand(summary.ComplianceHealth),
	}

	payload, err := json.Marshal(metrics)
	if err != nil {
		log.Printf("Error marshaling metrics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}
	h.cache.Set(ctx, key, payload, h.ttl)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
