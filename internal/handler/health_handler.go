package handler

import (
	"database/sql"
	"net/http"

	"github.com/suar-net/leadintake/internal/database"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/pkg/logging"
)

type HealthHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewHealthHandler checks db on every probe; a nil db means no database sink
// is configured and the service is healthy on its own.
func NewHealthHandler(db *sql.DB, logger *logging.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := database.Ping(r.Context(), h.db); err != nil {
			h.logger.Errorw("health check failed: database unreachable", "error", err)
			respondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
	}

	respondWithJson(w, http.StatusOK, model.DTOStatus{Status: "ok"})
}
