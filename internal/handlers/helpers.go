// Package handlers implements the HTTP API. Each resource gets a
// handler struct holding its dependencies; shared response helpers
// live here.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// JSONError writes a standard error envelope.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// JSONValidationError writes a 422 with per-field details.
func JSONValidationError(w http.ResponseWriter, details map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":   "Validation failed",
		"details": details,
	})
}

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PaginatedResponse wraps list payloads with pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewPaginationMeta computes totalPages from the raw count.
func NewPaginationMeta(page, limit, total int) PaginationMeta {
	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}
	return PaginationMeta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// parsePagination reads ?page= and ?limit= with sane bounds.
func parsePagination(r *http.Request) (page, limit int) {
	page = queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = queryInt(r, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// logActivity records an audit trail entry. Failures are logged but
// never fail the request that triggered them.
func logActivity(pool *pgxpool.Pool, companyID, userID, action, entityType, entityID, details string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx,
		`INSERT INTO activity_logs (company_id, user_id, action, entity_type, entity_id, details)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		companyID, userID, action, entityType, entityID, details)
	if err != nil {
		log.Printf("Error logging activity %s %s/%s: %v", action, entityType, entityID, err)
	}
}

// isDuplicateKeyError detects unique constraint violations without
// depending on pgconn internals.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}

// nilIfEmpty converts "" to NULL for optional columns.
func nilIfEmpty(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// csvEscape quotes a field if it contains separators or quotes.
func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
