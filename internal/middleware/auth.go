// Package middleware holds the HTTP middleware stack: JWT auth, tenant
// resolution, and rate limiting.
package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Gbun420/visatrack-malta/internal/ctxkeys"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/handlers"
)

// Auth validates the Bearer token and stores the user id and role in
// the request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handlers.JSONError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				handlers.JSONError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				handlers.JSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, _ := claims["sub"].(string)
			role, _ := claims["role"].(string)
			if userID == "" {
				handlers.JSONError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), ctxkeys.UserID, userID)
			ctx = context.WithValue(ctx, ctxkeys.UserRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Tenant resolves the authenticated user's company and stores its id in
// the request context. Runs after Auth. Users without a company linkage
// are rejected: every protected resource is scoped to a tenant.
func Tenant(db database.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ctxkeys.GetUserID(r.Context())
			if userID == "" {
				handlers.JSONError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			var companyID string
			err := db.GetPool().QueryRow(ctx,
				`SELECT company_id FROM users WHERE id = $1`, userID,
			).Scan(&companyID)
			if err == pgx.ErrNoRows {
				handlers.JSONError(w, http.StatusForbidden, "User is not linked to a company")
				return
			}
			if err != nil {
				log.Printf("Error resolving company for user %s: %v", userID, err)
				handlers.JSONError(w, http.StatusInternalServerError, "Failed to resolve company")
				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), ctxkeys.CompanyID, companyID)))
		})
	}
}

// RequireRole rejects requests whose role is below the given minimum.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(ctxkeys.UserRole).(string)
			if ctxkeys.RoleLevel[role] < ctxkeys.RoleLevel[minRole] {
				handlers.JSONError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
