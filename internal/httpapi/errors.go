package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
	"github.com/Suzzal26/Your-IT-Center/pkg/logging"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a core error onto the wire: business-rule violations carry
// their message, infra failures surface as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Log(logging.Fields{
			Service:   "storefront",
			RequestID: RequestIDFromContext(r.Context()),
			Step:      "handler",
			Status:    "error",
			Error:     err.Error(),
		})
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg, "kind": domain.Kind(err)})
}
