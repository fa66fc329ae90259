package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth/v5"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/handler/http/response"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/jwt"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/validator"
)

type contextKey string

const employeeKeyCtx contextKey = "employee_key"

// AuthRequired rejects requests without a verified access token and stores
// the employee identity from the token claims in the request context.
// The identity has already been checked against the employee directory by
// the issuer; it is trusted as-is.
func AuthRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		tokenType, ok := claims[jwt.ClaimType].(string)
		if tokenType != jwt.TokenTypeAccess || !ok {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		name, _ := claims[jwt.ClaimName].(string)
		email, _ := claims[jwt.ClaimEmail].(string)
		if validator.IsEmpty(name) || !validator.IsValidEmail(strings.TrimSpace(email)) {
			response.Unauthorized(w, "Token does not identify an employee")
			return
		}

		key := attendance.EmployeeKey{Name: name, Email: email}.Normalize()
		ctx := context.WithValue(r.Context(), employeeKeyCtx, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hfn)
}

// EmployeeFromContext returns the identity stored by AuthRequired
func EmployeeFromContext(ctx context.Context) (attendance.EmployeeKey, bool) {
	key, ok := ctx.Value(employeeKeyCtx).(attendance.EmployeeKey)
	return key, ok
}
