package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/insight/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// optionalDate parses a YYYY-MM-DD query value. Empty returns ok=false.
func optionalDate(r *http.Request, key string) (time.Time, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := contracts.ParseTradingDay(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
