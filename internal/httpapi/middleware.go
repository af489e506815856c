package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Suzzal26/Your-IT-Center/internal/auth"
	"github.com/Suzzal26/Your-IT-Center/internal/domain"
	"github.com/Suzzal26/Your-IT-Center/pkg/logging"
)

type ctxKey int

const ctxKeyRequestID ctxKey = iota

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		logging.Log(logging.Fields{
			Service:    "storefront",
			RequestID:  RequestIDFromContext(r.Context()),
			Step:       r.Method + " " + r.URL.Path,
			Status:     strconv.Itoa(sr.status),
			DurationMS: time.Since(start).Milliseconds(),
		})
	})
}

// instrument records the per-handler request counter and latency histogram.
func (h *Handler) instrument(name string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(sr, r)
		h.metrics.Requests.WithLabelValues(name, strconv.Itoa(sr.status)).Inc()
		h.metrics.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// requireAuth verifies the bearer token and stores the identity in the
// request context. adminOnly additionally enforces the admin role.
func (h *Handler) requireAuth(adminOnly bool, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, r, domain.ErrUnauthorized)
			return
		}
		identity, err := h.verifier.Verify(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if adminOnly && identity.Role != auth.RoleAdmin {
			writeError(w, r, domain.ErrForbidden)
			return
		}
		fn(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	}
}
