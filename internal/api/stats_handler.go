package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/stats"
)

// StatsHandler handles statistics requests
type StatsHandler struct {
	collector *stats.Collector
	logger    *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(collector *stats.Collector, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{collector: collector, logger: logger.Named("stats")}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.collector.Collect(r.Context())
	if err != nil {
		h.logger.Error("Failed to collect statistics", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			OK:    false,
			Error: "failed to collect statistics",
		})
		return
	}
	writeJSON(w, http.StatusOK, st)
}
