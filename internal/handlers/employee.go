package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	pgx "github.com/jackc/pgx/v5"

	"github.com/Gbun420/visatrack-malta/internal/cache"
	"github.com/Gbun420/visatrack-malta/internal/compliance"
	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

// EmployeeHandler handles employee CRUD plus the compliance-decorated
// list, detail, and CSV export views.
type EmployeeHandler struct {
	db    database.Service
	cache cache.Cache
}

// NewEmployeeHandler creates an employee handler.
func NewEmployeeHandler(db database.Service, c cache.Cache) *EmployeeHandler {
	return &EmployeeHandler{db: db, cache: c}
}

// List returns the tenant's employees with their visas, decorated with
// computed compliance fields and sorted most-urgent-first. Supports
// ?search= (name, passport), ?status=, and pagination.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())
	page, limit := parsePagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := `SELECT id, company_id, first_name, last_name, email, phone, nationality,
		passport_number, passport_expiry::text, date_of_birth::text, position, department,
		employment_start_date::text, employment_end_date::text, status, notes, created_at, updated_at
		FROM employees WHERE company_id = $1`
	countQuery := `SELECT COUNT(*) FROM employees WHERE company_id = $1`
	args := []interface{}{companyID}
	argPos := 2

	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		clause := fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR passport_number ILIKE $%d)`,
			argPos, argPos, argPos)
		query += clause
		countQuery += clause
		args = append(args, "%"+search+"%")
		argPos++
	}
	if status := r.URL.Query().Get("status"); status != "" {
		clause := fmt.Sprintf(` AND status = $%d`, argPos)
		query += clause
		countQuery += clause
		args = append(args, status)
		argPos++
	}

	var total int
	if err := h.db.GetPool().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("Error counting employees: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employees")
		return
	}

	query += fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := h.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error fetching employees: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employees")
		return
	}
	defer rows.Close()

	employees := []models.EmployeeWithVisas{}
	for rows.Next() {
		var e models.EmployeeWithVisas
		if err := scanEmployee(rows, &e.Employee); err != nil {
			log.Printf("Error scanning employee: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to fetch employees")
			return
		}
		e.Visas = []models.Visa{}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating employees: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employees")
		return
	}

	if err := h.attachVisas(ctx, employees); err != nil {
		log.Printf("Error fetching visas for employees: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employees")
		return
	}

	// The table view uses the widened selection so a lapsed permit shows
	// up as an expired row instead of a blank cell.
	now := time.Now()
	decorated := make([]models.EmployeeWithCompliance, len(employees))
	for i := range employees {
		decorated[i] = decorateEmployee(employees[i], compliance.ValidOrLegacyActiveOrExpired, now)
	}
	compliance.SortByUrgency(decorated, func(e models.EmployeeWithCompliance) *int {
		return e.DaysUntilExpiry
	})

	JSON(w, http.StatusOK, PaginatedResponse{
		Data:       decorated,
		Pagination: NewPaginationMeta(page, limit, total),
	})
}

// GetByID returns a single employee with visas and compliance fields.
// The detail view uses the narrower valid-or-legacy-active selection.
func (h *EmployeeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var e models.EmployeeWithVisas
	row := h.db.GetPool().QueryRow(ctx,
		`SELECT id, company_id, first_name, last_name, email, phone, nationality,
		 passport_number, passport_expiry::text, date_of_birth::text, position, department,
		 employment_start_date::text, employment_end_date::text, status, notes, created_at, updated_at
		 FROM employees WHERE id = $1 AND company_id = $2`, id, companyID)
	if err := scanEmployee(row, &e.Employee); err != nil {
		if err == pgx.ErrNoRows {
			JSONError(w, http.StatusNotFound, "Employee not found")
			return
		}
		log.Printf("Error fetching employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employee")
		return
	}

	e.Visas = []models.Visa{}
	single := []models.EmployeeWithVisas{e}
	if err := h.attachVisas(ctx, single); err != nil {
		log.Printf("Error fetching visas for employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch employee")
		return
	}

	JSON(w, http.StatusOK, decorateEmployee(single[0], compliance.ValidOrLegacyActive, time.Now()))
}

// Create registers a new employee for the tenant.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	var req models.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidationError(w, errs)
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var e models.Employee
	row := h.db.GetPool().QueryRow(ctx,
		`INSERT INTO employees (company_id, first_name, last_name, email, phone, nationality,
		 passport_number, passport_expiry, date_of_birth, position, department,
		 employment_start_date, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, company_id, first_name, last_name, email, phone, nationality,
		 passport_number, passport_expiry::text, date_of_birth::text, position, department,
		 employment_start_date::text, employment_end_date::text, status, notes, created_at, updated_at`,
		companyID, req.FirstName, req.LastName, nilIfEmpty(req.Email), nilIfEmpty(req.Phone),
		nilIfEmpty(req.Nationality), req.PassportNumber, nilIfEmpty(req.PassportExpiry),
		nilIfEmpty(req.DateOfBirth), nilIfEmpty(req.Position), nilIfEmpty(req.Department),
		nilIfEmpty(req.EmploymentStartDate), req.Status, nilIfEmpty(req.Notes))
	if err := scanEmployee(row, &e); err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "An employee with this passport number already exists")
			return
		}
		log.Printf("Error creating employee: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	logActivity(h.db.GetPool(), companyID, ctxkeys.GetUserID(r.Context()),
		"create", "employee", e.ID, e.FirstName+" "+e.LastName)
	h.cache.Delete(ctx, dashboardCacheKey(companyID))

	JSON(w, http.StatusCreated, e)
}

// Update applies a partial update to an employee.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())
	id := chi.URLParam(r, "id")

	var req models.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Status != nil && !models.ValidEmployeeStatuses[*req.Status] {
		JSONValidationError(w, map[string]string{
			"status": "Status must be 'active', 'pending', 'inactive', 'on_leave', or 'terminated'",
		})
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

	if req.FirstName != nil {
		addSet("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		addSet("last_name", *req.LastName)
	}
	if req.Email != nil {
		addSet("email", nilIfEmpty(req.Email))
	}
	if req.Phone != nil {
		addSet("phone", nilIfEmpty(req.Phone))
	}
	if req.Nationality != nil {
		addSet("nationality", nilIfEmpty(req.Nationality))
	}
	if req.PassportNumber != nil {
		addSet("passport_number", *req.PassportNumber)
	}
	if req.PassportExpiry != nil {
		addSet("passport_expiry", nilIfEmpty(req.PassportExpiry))
	}
	if req.DateOfBirth != nil {
		addSet("date_of_birth", nilIfEmpty(req.DateOfBirth))
	}
	if req.Position != nil {
		addSet("position", nilIfEmpty(req.Position))
	}
	if req.Department != nil {
		addSet("department", nilIfEmpty(req.Department))
	}
	if req.EmploymentStartDate != nil {
		addSet("employment_start_date", nilIfEmpty(req.EmploymentStartDate))
	}
	if req.EmploymentEndDate != nil {
		addSet("employment_end_date", nilIfEmpty(req.EmploymentEndDate))
	}
	if req.Status != nil {
		addSet("status", *req.Status)
	}
	if req.Notes != nil {
		addSet("notes", nilIfEmpty(req.Notes))
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	addSet("updated_at", time.Now())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(
		`UPDATE employees SET %s WHERE id = $%d AND company_id = $%d
		 RETURNING id, company_id, first_name, last_name, email, phone, nationality,
		 passport_number, passport_expiry::text, date_of_birth::text, position, department,
		 employment_start_date::text, employment_end_date::text, status, notes, created_at, updated_at`,
		strings.Join(setClauses, ", "), argPos, argPos+1)
	args = append(args, id, companyID)

	var e models.Employee
	if err := scanEmployee(h.db.GetPool().QueryRow(ctx, query, args...), &e); err != nil {
		if err == pgx.ErrNoRows {
			JSONError(w, http.StatusNotFound, "Employee not found")
			return
		}
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "An employee with this passport number already exists")
			return
		}
		log.Printf("Error updating employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	logActivity(h.db.GetPool(), companyID, ctxkeys.GetUserID(r.Context()),
		"update", "employee", e.ID, e.FirstName+" "+e.LastName)
	h.cache.Delete(ctx, dashboardCacheKey(companyID))

	JSON(w, http.StatusOK, e)
}

// Delete removes an employee and, via cascade, their visas.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.db.GetPool().Exec(ctx,
		`DELETE FROM employees WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		log.Printf("Error deleting employee %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete employee")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Employee not found")
		return
	}

	logActivity(h.db.GetPool(), companyID, ctxkeys.GetUserID(r.Context()),
		"delete", "employee", id, "")
	h.cache.Delete(ctx, dashboardCacheKey(companyID))

	JSON(w, http.StatusOK, map[string]string{"message": "Employee deleted"})
}

// Export streams the tenant's roster as CSV, one row per employee with
// the computed compliance status included.
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rows, err := h.db.GetPool().Query(ctx,
		`SELECT id, company_id, first_name, last_name, email, phone, nationality,
		 passport_number, passport_expiry::text, date_of_birth::text, position, department,
		 employment_start_date::text, employment_end_date::text, status, notes, created_at, updated_at
		 FROM employees WHERE company_id = $1 ORDER BY last_name, first_name`, companyID)
	if err != nil {
		log.Printf("Error fetching employees for export: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export employees")
		return
	}
	defer rows.Close()

	employees := []models.EmployeeWithVisas{}
	for rows.Next() {
		var e models.EmployeeWithVisas
		if err := scanEmployee(rows, &e.Employee); err != nil {
			log.Printf("Error scanning employee for export: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to export employees")
			return
		}
		e.Visas = []models.Visa{}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating employees for export: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export employees")
		return
	}

	if err := h.attachVisas(ctx, employees); err != nil {
		log.Printf("Error fetching visas for export: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export employees")
		return
	}

	now := time.Now()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="employees.csv"`)

	fmt.Fprintln(w, "First Name,Last Name,Nationality,Passport Number,Position,Department,Employee Status,Compliance Status,Visa Expiry,Days Until Expiry")
	for i := range employees {
		d := decorateEmployee(employees[i], compliance.ValidOrLegacyActiveOrExpired, now)
		expiry, days := "", ""
		if d.ActiveVisaExpiry != nil {
			expiry = *d.ActiveVisaExpiry
		}
		if d.DaysUntilExpiry != nil {
			days = fmt.Sprintf("%d", *d.DaysUntilExpiry)
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			csvEscape(d.FirstName), csvEscape(d.LastName), csvEscape(strOrEmpty(d.Nationality)),
			csvEscape(d.PassportNumber), csvEscape(strOrEmpty(d.Position)),
			csvEscape(strOrEmpty(d.Department)), csvEscape(d.Status),
			csvEscape(d.EffectiveStatus), csvEscape(expiry), days)
	}
}

// attachVisas fills the Visas slice of each employee in one query.
func (h *EmployeeHandler) attachVisas(ctx context.Context, employees []models.EmployeeWithVisas) error {
	if len(employees) == 0 {
		return nil
	}

	ids := make([]string, len(employees))
	index := make(map[string]int, len(employees))
	for i := range employees {
		ids[i] = employees[i].ID
		index[employees[i].ID] = i
	}

	rows, err := h.db.GetPool().Query(ctx,
		`SELECT id, employee_id, visa_type, country_issued, issue_date::text, expiry_date::text,
		 permit_number, status, application_status, created_at, updated_at
		 FROM visas WHERE employee_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v models.Visa
		if err := scanVisa(rows, &v); err != nil {
			return err
		}
		if i, ok := index[v.EmployeeID]; ok {
			employees[i].Visas = append(employees[i].Visas, v)
		}
	}
	return rows.Err()
}

// decorateEmployee runs the compliance engine over one employee's visas
// with the given selection policy.
func decorateEmployee(e models.EmployeeWithVisas, policy compliance.SelectionPolicy, now time.Time) models.EmployeeWithCompliance {
	d := models.EmployeeWithCompliance{EmployeeWithVisas: e}

	active := compliance.SelectActive(e.Visas, policy)
	if active == nil {
		d.EffectiveStatus = compliance.StatusNoRecord
		return d
	}

	d.EffectiveStatus = compliance.ClassifyDate(active.ExpiryDate, now)
	d.DaysUntilExpiry = compliance.DaysUntilDate(active.ExpiryDate, now)
	d.ActiveVisaID = &active.ID
	d.ActiveVisaType = &active.VisaType
	d.ActiveVisaExpiry = &active.ExpiryDate

	return d
}

func scanEmployee(row pgx.Row, e *models.Employee) error {
	return row.Scan(&e.ID, &e.CompanyID, &e.FirstName, &e.LastName, &e.Email, &e.Phone,
		&e.Nationality, &e.PassportNumber, &e.PassportExpiry, &e.DateOfBirth, &e.Position,
		&e.Department, &e.EmploymentStartDate, &e.EmploymentEndDate, &e.Status, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt)
}

func scanVisa(row pgx.Row, v *models.Visa) error {
	return row.Scan(&v.ID, &v.EmployeeID, &v.VisaType, &v.CountryIssued, &v.IssueDate,
		&v.ExpiryDate, &v.PermitNumber, &v.Status, &v.ApplicationStatus,
		&v.CreatedAt, &v.UpdatedAt)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dashboardCacheKey(companyID string) string {
	return "dashboard:" + companyID
}
