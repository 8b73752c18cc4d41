package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	pgx "github.com/jackc/pgx/v5"

	"github.com/Gbun420/visatrack-malta/internal/compliance"
	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

// AlertHandler handles compliance alerts: listing, manual creation, and
// status transitions.
type AlertHandler struct {
	db database.Service
}

// NewAlertHandler creates an alert handler.
func NewAlertHandler(db database.Service) *AlertHandler {
	return &AlertHandler{db: db}
}

// List returns the tenant's alerts newest first, each with its employee
// context (when linked) and presentation icon. Supports ?status=.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := `SELECT a.id, a.company_id, a.employee_id, a.alert_type, a.title, a.description,
		a.due_date::text, a.status, a.created_at, a.updated_at,
		e.id, e.first_name, e.last_name
		FROM compliance_alerts a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.company_id = $1`
	args := []interface{}{companyID}

	if status := r.URL.Query().Get("status"); status != "" {
		query += ` AND a.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := h.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error fetching alerts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}
	defer rows.Close()

	alerts := []models.AlertWithEmployee{}
	for rows.Next() {
		var a models.AlertWithEmployee
		var empID, empFirst, empLast *string
		err := rows.Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.AlertType, &a.Title,
			&a.Description, &a.DueDate, &a.Status, &a.CreatedAt, &a.UpdatedAt,
			&empID, &empFirst, &empLast)
		if err != nil {
			log.Printf("Error scanning alert: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to fetch alerts")
			return
		}

		if empID != nil {
			a.Employee = &models.AlertEmployee{ID: *empID, FirstName: *empFirst, LastName: *empLast}
		}
		a.Icon = compliance.AlertIcon(a.AlertType)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating alerts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": alerts})
}

// Create raises an alert manually. New alerts always start open; the
// type defaults to expiry.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	var req models.CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidationError(w, errs)
		return
	}
	if req.AlertType == "" {
		req.AlertType = "expiry"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if req.EmployeeID != nil && *req.EmployeeID != "" {
		var owner string
		err := h.db.GetPool().QueryRow(ctx,
			`SELECT company_id FROM employees WHERE id = $1`, *req.EmployeeID).Scan(&owner)
		if err == pgx.ErrNoRows || (err == nil && owner != companyID) {
			JSONError(w, http.StatusNotFound, "Employee not found")
			return
		}
		if err != nil {
			log.Printf("Error verifying employee %s: %v", *req.EmployeeID, err)
			JSONError(w, http.StatusInternalServerError, "Failed to create alert")
			return
		}
	}

	var a models.ComplianceAlert
	err := h.db.GetPool().QueryRow(ctx,
		`INSERT INTO compliance_alerts (company_id, employee_id, alert_type, title, description, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'open')
		 RETURNING id, company_id, employee_id, alert_type, title, description, due_date::text,
		 status, created_at, updated_at`,
		companyID, nilIfEmpty(req.EmployeeID), req.AlertType, req.Title,
		nilIfEmpty(req.Description), nilIfEmpty(req.DueDate),
	).Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.AlertType, &a.Title, &a.Description,
		&a.DueDate, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		log.Printf("Error creating alert: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	logActivity(h.db.GetPool(), companyID, ctxkeys.GetUserID(r.Context()),
		"create", "alert", a.ID, a.Title)

	JSON(w, http.StatusCreated, a)
}

// UpdateStatus moves an alert along its lifecycle. Backward transitions
// (resolved back to open, for example) are rejected.
func (h *AlertHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())
	id := chi.URLParam(r, "id")

	var req models.UpdateAlertStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidationError(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var current string
	err := h.db.GetPool().QueryRow(ctx,
		`SELECT status FROM compliance_alerts WHERE id = $1 AND company_id = $2`,
		id, companyID).Scan(&current)
	if err == pgx.ErrNoRows {
		JSONError(w, http.StatusNotFound, "Alert not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching alert %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update alert")
		return
	}

	if !models.CanTransitionAlertStatus(current, req.Status) {
		JSONError(w, http.StatusConflict, "Alert status cannot move backward")
		return
	}

	var a models.ComplianceAlert
	err = h.db.GetPool().QueryRow(ctx,
		`UPDATE compliance_alerts SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND company_id = $3
		 RETURNING id, company_id, employee_id, alert_type, title, description, due_date::text,
		 status, created_at, updated_at`,
		req.Status, id, companyID,
	).Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.AlertType, &a.Title, &a.Description,
		&a.DueDate, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		log.Printf("Error updating alert %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update alert")
		return
	}

	logActivity(h.db.GetPool(), companyID, ctxkeys.GetUserID(r.Context()),
		"update", "alert", a.ID, "status: "+a.Status)

	JSON(w, http.StatusOK, a)
}
