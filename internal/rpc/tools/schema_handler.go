package tools

import (
	"encoding/json"
	"net/http"

	"github.com/repo-auditor/repo-auditor/internal/tools"
)

// SchemaHandler serves tool schemas as JSON. With ?format=model it serves
// the JSON-schema definitions exactly as declared to the model.
type SchemaHandler struct {
	Registry *tools.Registry
}

// ServeHTTP renders schemas.
func (h SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Registry == nil {
		http.Error(w, "tool registry unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("format") == "model" {
		_ = json.NewEncoder(w).Encode(h.Registry.Definitions())
		return
	}
	_ = json.NewEncoder(w).Encode(h.Registry.Schemas())
}
