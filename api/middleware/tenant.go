package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizops-backend/api/responses"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
)

const TenantHeader = "X-Tenant-ID"

// TenantContext requires X-Tenant-ID to name the tenant the token was issued
// for. Must run after Auth.
func TenantContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(TenantHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Tenant-ID header required"))
				return
			}
			tenantID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "X-Tenant-ID must be a UUID"))
				return
			}

			tokenTenant := tokenTenantFromContext(r.Context())
			if tokenTenant == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			if tokenTenant != tenantID.String() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant does not match credentials"))
				return
			}

			ctx := WithTenantID(r.Context(), tenantID.String())
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
