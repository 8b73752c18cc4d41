package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusNotFound, "Employee not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Employee not found", body["error"])
}

func TestJSONValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONValidationError(rec, map[string]string{"firstName": "First name is required"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, "First name is required", body.Details["firstName"])
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(2, 20, 45)
	assert.Equal(t, 3, meta.TotalPages)

	exact := NewPaginationMeta(1, 20, 40)
	assert.Equal(t, 2, exact.TotalPages)

	empty := NewPaginationMeta(1, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=50", nil)
	page, limit := parsePagination(req)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, limit)

	req = httptest.NewRequest(http.MethodGet, "/?page=abc&limit=9999", nil)
	page, limit = parsePagination(req)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit, "limit is capped")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	page, limit = parsePagination(req)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, isDuplicateKeyError(errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`)))
	assert.False(t, isDuplicateKeyError(errors.New("connection refused")))
	assert.False(t, isDuplicateKeyError(nil))
}

func TestCSVEscape(t *testing.T) {
	assert.Equal(t, "plain", csvEscape("plain"))
	assert.Equal(t, `"has,comma"`, csvEscape("has,comma"))
	assert.Equal(t, `"has ""quote"""`, csvEscape(`has "quote"`))
	assert.Equal(t, "\"line\nbreak\"", csvEscape("line\nbreak"))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(nil))

	empty := ""
	assert.Nil(t, nilIfEmpty(&empty))

	value := "x"
	assert.Equal(t, "x", nilIfEmpty(&value))
}
