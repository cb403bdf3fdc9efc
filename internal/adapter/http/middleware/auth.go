package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/auth"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// OperatorContextKey is the context key for the authenticated operator
	OperatorContextKey ContextKey = "operator"
)

// AuthMiddleware creates an authentication middleware. Requests without a
// valid bearer token are rejected with 401; failures are counted by reason
// when m is not nil.
func AuthMiddleware(jwtManager *auth.JWTManager, m *metrics.Metrics) func(http.Handler) http.Handler {
	fail := func(w http.ResponseWriter, reason, message string) {
		if m != nil {
			m.AuthFailures.WithLabelValues(reason).Inc()
		}
		writeJSONError(w, http.StatusUnauthorized, message)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				fail(w, "missing_header", "missing authorization header")
				return
			}

			// Parse Bearer token
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				fail(w, "malformed_header", "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, domain.ErrExpiredToken) {
					reason = "expired_token"
				}
				fail(w, reason, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), claims.Operator())))
		})
	}
}

// WithOperator returns a copy of ctx carrying operator.
func WithOperator(ctx context.Context, operator *domain.Operator) context.Context {
	return context.WithValue(ctx, OperatorContextKey, operator)
}

// GetOperatorFromContext extracts the authenticated operator from context
func GetOperatorFromContext(ctx context.Context) (*domain.Operator, bool) {
	operator, ok := ctx.Value(OperatorContextKey).(*domain.Operator)
	return operator, ok
}

// AuthorizeCompany checks that the operator in ctx may touch company's
// books. Without an operator (authentication disabled) everything is
// allowed. An empty company resolves server-side, so it needs an operator
// with access to every company.
func AuthorizeCompany(ctx context.Context, company string) error {
	operator, ok := GetOperatorFromContext(ctx)
	if !ok {
		return nil
	}
	if !operator.Allows(company) {
		return domain.ErrCompanyForbidden
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
