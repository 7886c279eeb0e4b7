package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rentalshop-backend/internal/config"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/security"
)

const requestIDHeader = "X-Request-ID"

type staffKey struct{}

func withStaff(ctx context.Context, staff domain.Staff) context.Context {
	return context.WithValue(ctx, staffKey{}, staff)
}

// staffFrom returns the authenticated staff member. The auth middleware
// guarantees it is present on every non-public route.
func staffFrom(ctx context.Context) domain.Staff {
	staff, _ := ctx.Value(staffKey{}).(domain.Staff)
	return staff
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags the request context with a request id and logs one line
// per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.With(r.Context(), "requestID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.FromContext(ctx).Info("HTTP request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.ErrorContext(r.Context(), "Panic while serving request", "panic", v, "stack", string(debug.Stack()))
				fail(w, http.StatusInternalServerError, "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware resolves the staff member from the bearer token and checks
// the route's security level.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if t, err := route.GetPathTemplate(); err == nil {
				template = t
			}
		}
		level := config.GetSecurityLevel(r.Method, template)
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			fail(w, http.StatusUnauthorized, "authorization token is not provided", nil)
			return
		}
		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			fail(w, http.StatusUnauthorized, "invalid token", nil)
			return
		}
		staff := claims.Staff()
		if !level.Allows(staff.Role) {
			fail(w, http.StatusForbidden, "manager role required", nil)
			return
		}

		ctx := withStaff(r.Context(), staff)
		ctx = logger.With(ctx, "shopID", staff.ShopID, "staffID", staff.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
