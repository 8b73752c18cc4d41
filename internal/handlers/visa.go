package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	pgx "github.com/jackc/pgx/v5"

	"github.com/Gbun420/visatrack-malta/internal/cache"
	"github.com/Gbun420/visatrack-malta/internal/compliance"
	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

// VisaHandler handles visa records for the tenant's employees.
type VisaHandler struct {
	db    database.Service
	cache cache.Cache
}

// NewVisaHandler creates a visa handler.
func NewVisaHandler(db database.Service, c cache.Cache) *VisaHandler {
	return &VisaHandler{db: db, cache: c}
}

// List returns all visas across the tenant's roster ordered soonest
// expiry first, each with its employee and computed expiry fields.
// Supports ?status=expiring|expired|valid filtering on the COMPUTED
// status, not the stored lifecycle column.
func (h *VisaHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.db.GetPool().Query(ctx,
		`SELECT v.id, v.employee_id, v.visa_type, v.country_issued, v.issue_date::text,
		 v.expiry_date::text, v.permit_number, v.status, v.application_status,
		 v.created_at, v.updated_at,
		 e.id, e.first_name, e.last_name, e.passport_number
		 FROM visas v
		 JOIN employees e ON e.id = v.employee_id
		 WHERE e.company_id = $1
		 ORDER BY v.expiry_date ASC`, companyID)
	if err != nil {
		log.Printf("Error fetching visas: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch visas")
		return
	}
	defer rows.Close()

	now := time.Now()
	filter := r.URL.Query().Get("status")

	visas := []models.VisaWithEmployee{}
	for rows.Next() {
		var v models.VisaWithEmployee
		err := rows.Scan(&v.ID, &v.EmployeeID, &v.VisaType, &v.CountryIssued, &v.IssueDate,
			&v.ExpiryDate, &v.PermitNumber, &v.Status, &v.ApplicationStatus,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Employee.ID, &v.Employee.FirstName, &v.Employee.LastName, &v.Employee.PassportNumber)
		if err != nil {
			log.Printf("Error scanning visa: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to fetch visas")
			return
		}

		v.EffectiveStatus = compliance.ClassifyDate(v.ExpiryDate, now)
		v.DaysUntilExpiry = compliance.DaysUntilDate(v.ExpiryDate, now)

		if !matchesComputedFilter(v.EffectiveStatus, filter) {
			continue
		}
		visas = append(visas, v)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating visas: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch visas")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": visas})
}

// Create records a new visa grant after verifying the employee belongs
// to the caller's tenant.
func (h *VisaHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	var req models.CreateVisaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidationError(w, errs)
		return
	}
	if req.Status == "" {
		req.Status = "valid"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var owner string
	err := h.db.GetPool().QueryRow(ctx,
		`SELECT company_id FROM employees WHERE id = $1`, req.EmployeeID).Scan(&owner)
	if err == pgx.ErrNoRows || (err == nil && owner != companyID) {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}
	if err != nil {
		log.Printf("Error verifying employee %s: %v", req.EmployeeID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to create visa")
		return
	}

	var v models.Visa
	row := h.db.GetPool().QueryRow(ctx,
		`INSERT INTO visas (employee_id, visa_type, country_issued, issue_date, expiry_date,
		 permit_number, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, employee_id, visa_type, country_issued, issue_date::text,
		 expiry_date::text, permit_number, status, application_status, created_at, updated_at`,
		req.EmployeeID, req.VisaType, nilIfEmpty(req.CountryIssued), req.IssueDate,
		req.ExpiryDate, nilIfEmpty(req.PermitNumber), req.Status)
	if err := scanVisa(row, &v); err != nil {
		log.Printf("Error creating visa: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create visa")
		return
	}

	logActivity(h.db.GetPool(), companyID, ctxkeys.GetUserID(r.Context()),
		"create", "visa", v.ID, v.VisaType)
	h.cache.Delete(ctx, dashboardCacheKey(companyID))

	JSON(w, http.StatusCreated, v)
}

// matchesComputedFilter maps the query filter values onto computed
// effective statuses. Empty filter matches everything.
func matchesComputedFilter(effective, filter string) bool {
	switch filter {
	case "":
		return true
	case "expiring":
		return effective == compliance.StatusExpiringSoon
	case "expired":
		return effective == compliance.StatusExpired
	case "valid":
		return effective == compliance.StatusValid
	default:
		return true
	}
}
