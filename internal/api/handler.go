package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/llm"
	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/service"
)

const allowedMethods = "GET, POST, OPTIONS"

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	name    string
	version string
	logger  *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, name, version string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		name:    name,
		version: version,
		logger:  logger.Named("api"),
	}
}

// Match handles /api/like and /api/v1/match. OPTIONS answers preflight,
// a bare GET reports status, GET with a query string and POST run a match.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if len(r.URL.Query()) == 0 {
			h.status(w)
			return
		}
		h.match(w, r, queryMatchRequest(r.URL.Query()))
	case http.MethodPost:
		req, err := decodeMatchBody(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.match(w, r, req)
	default:
		w.Header().Set("Allow", allowedMethods)
		writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{
			OK:    false,
			Error: "method " + r.Method + " not allowed",
		})
	}
}

func (h *Handler) match(w http.ResponseWriter, r *http.Request, req model.MatchRequest) {
	resp, err := h.service.Match(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) status(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		OK:      true,
		Service: h.name,
		Version: h.version,
		Mode:    h.service.Mode(),
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := RequestIDFromContext(r.Context())
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, model.ErrorResponse{OK: false, Error: err.Error()})
	case errors.Is(err, service.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			OK:    false,
			Error: strings.TrimPrefix(err.Error(), service.ErrInvalidRequest.Error()+": "),
		})
	case errors.Is(err, llm.ErrMissingCredential):
		h.logger.Error("Matching provider credential missing", zap.Error(err), zap.String("request_id", requestID))
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			OK:      false,
			Error:   "server is missing its language model API credential",
			Details: err.Error(),
		})
	default:
		h.logger.Error("Match failed", zap.Error(err), zap.String("request_id", requestID))
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			OK:    false,
			Error: err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}
