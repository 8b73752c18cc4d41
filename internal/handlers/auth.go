package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	pgx "github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

const bcryptCost = 12

// AuthHandler handles registration, login, and the current-user lookup.
type AuthHandler struct {
	db        database.Service
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(db database.Service, jwtSecret string) *AuthHandler {
	return &AuthHandler{db: db, jwtSecret: jwtSecret, tokenTTL: 24 * time.Hour}
}

// Register creates a user account and auto-provisions its company in a
// single transaction. The first user of a company is its admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidationError(w, errs)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tx, err := h.db.GetPool().Begin(ctx)
	if err != nil {
		log.Printf("Error starting registration transaction: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}
	defer tx.Rollback(ctx)

	var companyID string
	err = tx.QueryRow(ctx,
		`INSERT INTO companies (name, subscription_tier, employees_limit)
		 VALUES ($1, 'starter', 25)
		 RETURNING id`,
		strings.TrimSpace(req.CompanyName),
	).Scan(&companyID)
	if err != nil {
		log.Printf("Error creating company: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	var user models.User
	err = tx.QueryRow(ctx,
		`INSERT INTO users (company_id, email, password_hash, full_name, role)
		 VALUES ($1, $2, $3, $4, 'admin')
		 RETURNING id, company_id, email, full_name, role, created_at, updated_at`,
		companyID, email, string(hash), strings.TrimSpace(req.FullName),
	).Scan(&user.ID, &user.CompanyID, &user.Email, &user.FullName, &user.Role,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		log.Printf("Error creating user: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Error committing registration: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		log.Printf("Error signing token: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	logActivity(h.db.GetPool(), user.CompanyID, user.ID, "create", "company", companyID, "Company registered")

	JSON(w, http.StatusCreated, models.AuthResponse{Token: token, User: user})
}

// Login verifies credentials and returns a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
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

	var user models.User
	err := h.db.GetPool().QueryRow(ctx,
		`SELECT id, company_id, email, password_hash, full_name, role, phone, created_at, updated_at
		 FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(req.Email)),
	).Scan(&user.ID, &user.CompanyID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.Role, &user.Phone, &user.CreatedAt, &user.UpdatedAt)
	if err == pgx.ErrNoRows {
		// Same message as a wrong password so the endpoint does not leak
		// which emails have accounts.
		JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		log.Printf("Error fetching user for login: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		log.Printf("Error signing token: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	JSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// GetMe returns the authenticated user's profile.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := h.db.GetPool().QueryRow(ctx,
		`SELECT id, company_id, email, full_name, role, phone, created_at, updated_at
		 FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.CompanyID, &user.Email, &user.FullName, &user.Role,
		&user.Phone, &user.CreatedAt, &user.UpdatedAt)
	if err == pgx.ErrNoRows {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching user %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) issueToken(user models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(h.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}
