// Package ctxkeys defines typed context keys shared between middleware
// and handlers. This avoids import cycles: both middleware and handlers
// import this package, but neither imports the other for context key types.
package ctxkeys

import "context"

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID    Key = "userID"
	UserRole  Key = "userRole"
	CompanyID Key = "companyID"
)

// GetUserID returns the authenticated user's id, or "" when absent.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserID).(string)
	return id
}

// GetCompanyID returns the tenant id resolved for the current request,
// or "" when the user has no company linkage.
func GetCompanyID(ctx context.Context) string {
	id, _ := ctx.Value(CompanyID).(string)
	return id
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"viewer":  1,
	"manager": 2,
	"admin":   3,
}
