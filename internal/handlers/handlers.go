// Package handlers exposes the bar's JSON API: inventory, drinks with
// live availability, the shopping list, guest orders, and session auth.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"barkeep/internal/engine"
	applog "barkeep/internal/log"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	stockLedger    *engine.Ledger
	shoppingSvc    *engine.Shopping
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
	if db != nil {
		stockLedger = engine.NewLedger(db)
		shoppingSvc = engine.NewShopping(db)
	} else {
		stockLedger = nil
		shoppingSvc = nil
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseID converts a path segment into a record id. Zero means invalid.
func parseID(segment string) uint {
	value, err := strconv.ParseUint(segment, 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

// requireDatabase guards handlers that cannot run without storage.
func requireDatabase(w http.ResponseWriter, r *http.Request) bool {
	if database == nil {
		applog.Debug(r.Context(), "request without database", "path", r.URL.Path)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// requireUser guards handlers that need an authenticated session.
func requireUser(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := currentUserID(r); !ok {
		applog.Debug(r.Context(), "request without authenticated user", "path", r.URL.Path)
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}
