package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborpeak/coverdesk/pkg/composables"
)

// ProvidePool makes the database pool available to every request context so
// repositories can resolve it lazily.
func ProvidePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// ProvideOrg parses the org header into the request context. Requests without
// the header pass through unchanged; handlers decide whether org scope is
// required.
func ProvideOrg(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := strings.TrimSpace(r.Header.Get(header)); raw != "" {
				if orgID, err := uuid.Parse(raw); err == nil {
					r = r.WithContext(composables.WithOrgID(r.Context(), orgID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
