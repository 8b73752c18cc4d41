package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

// ActivityHandler serves the tenant's audit trail.
type ActivityHandler struct {
	db database.Service
}

// NewActivityHandler creates an activity handler.
func NewActivityHandler(db database.Service) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// List returns the tenant's activity log newest first, paginated.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := ctxkeys.GetCompanyID(r.Context())
	page, limit := parsePagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var total int
	err := h.db.GetPool().QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_logs WHERE company_id = $1`, companyID).Scan(&total)
	if err != nil {
		log.Printf("Error counting activity logs: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}

	rows, err := h.db.GetPool().Query(ctx,
		`SELECT id, company_id, user_id, entity_type, entity_id, action, details, created_at
		 FROM activity_logs WHERE company_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		companyID, limit, (page-1)*limit)
	if err != nil {
		log.Printf("Error fetching activity logs: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var l models.AuditLog
		err := rows.Scan(&l.ID, &l.CompanyID, &l.UserID, &l.EntityType, &l.EntityID,
			&l.Action, &l.Details, &l.CreatedAt)
		if err != nil {
			log.Printf("Error scanning activity log: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to fetch activity")
			return
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating activity logs: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data:       logs,
		Pagination: NewPaginationMeta(page, limit, total),
	})
}
