package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v5"

	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

// CompanyHandler handles the current tenant's settings.
type CompanyHandler struct {
	db database.Service
}

// NewCompanyHandler creates a company handler.
func NewCompanyHandler(db database.Service) *CompanyHandler {
	return &CompanyHandler{db: db}
}

const companyColumns = `id, name, registration_number, address, city, postal_code,
	phone, email, subscription_tier, employees_limit, created_at, updated_at`

// Get returns the caller's company.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var c models.Company
	err := h.db.GetPool().QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, companyID,
	).Scan(&c.ID, &c.Name, &c.RegistrationNumber, &c.Address, &c.City, &c.PostalCode,
		&c.Phone, &c.Email, &c.SubscriptionTier, &c.EmployeesLimit, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		JSONError(w, http.StatusNotFound, "Company not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching company %s: %v", companyID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch company")
		return
	}

	JSON(w, http.StatusOK, c)
}

// Update applies a partial update to the caller's company.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	var req models.UpdateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidationError(w, errs)
		return
	}

	setClauses := []string{}
	args := []interface{}{}
	argPos := 1

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if req.Name != nil {
		addSet("name", *req.Name)
	}
	if req.RegistrationNumber != nil {
		addSet("registration_number", nilIfEmpty(req.RegistrationNumber))
	}
	if req.Address != nil {
		addSet("address", nilIfEmpty(req.Address))
	}
	if req.City != nil {
		addSet("city", nilIfEmpty(req.City))
	}
	if req.PostalCode != nil {
		addSet("postal_code", nilIfEmpty(req.PostalCode))
	}
	if req.Phone != nil {
		addSet("phone", nilIfEmpty(req.Phone))
	}
	if req.Email != nil {
		addSet("email", nilIfEmpty(req.Email))
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	addSet("updated_at", time.Now())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`UPDATE companies SET %s WHERE id = $%d RETURNING `+companyColumns,
		strings.Join(setClauses, ", "), argPos)
	args = append(args, companyID)

	var c models.Company
	err := h.db.GetPool().QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Name, &c.RegistrationNumber, &c.Address, &c.City, &c.PostalCode,
		&c.Phone, &c.Email, &c.SubscriptionTier, &c.EmployeesLimit, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		JSONError(w, http.StatusNotFound, "Company not found")
		return
	}
	if err != nil {
		log.Printf("Error updating company %s: %v", companyID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update company")
		return
	}

	logActivity(h.db.GetPool(), companyID, ctxkeys.GetUserID(r.Context()),
		"update", "company", c.ID, c.Name)

	JSON(w, http.StatusOK, c)
}
