package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
)

// PublicHandler handles public API endpoints
type PublicHandler struct {
	DatabaseService *database.DatabaseService // nil when results are not persisted
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(dbService *database.DatabaseService) *PublicHandler {
	return &PublicHandler{
		DatabaseService: dbService,
	}
}

// Health reports liveness and, when a database is configured, whether it answers a ping.
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "disabled"}

	if h.DatabaseService != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DatabaseService.DB.PingContext(ctx); err != nil {
			log.Printf("[PublicHandler] database ping failed: %v", err)
			status["status"] = "degraded"
			status["database"] = "unreachable"
			WriteJSONResponse(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = h.DatabaseService.Driver
	}

	WriteJSONResponse(w, http.StatusOK, status)
}
