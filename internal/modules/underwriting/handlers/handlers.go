// Package handlers provides HTTP handlers for asset submission and basket
// inspection.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aquifer-fi/aquifer/internal/domain"
	"github.com/aquifer-fi/aquifer/internal/modules/baskets"
	"github.com/aquifer-fi/aquifer/internal/modules/underwriting"
)

// Handler handles underwriting HTTP requests
type Handler struct {
	service   *underwriting.Service
	allocator *baskets.Allocator
	log       zerolog.Logger
}

// NewHandler creates a new underwriting handler
func NewHandler(service *underwriting.Service, allocator *baskets.Allocator, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		allocator: allocator,
		log:       log.With().Str("handler", "underwriting").Logger(),
	}
}

// RegisterRoutes registers all underwriting routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/submissions", h.HandleSubmit)
	r.Post("/api/assessments", h.HandleAssess)
	r.Get("/api/baskets", h.HandleListBaskets)
	r.Get("/api/baskets/{id}", h.HandleGetBasket)
}

type submissionRequest struct {
	AssetID    string            `json:"asset_id"`
	Class      string            `json:"class"`
	Amount     float64           `json:"amount"`
	Attributes domain.Attributes `json:"attributes"`
}

func (req submissionRequest) toSubmission() domain.AssetSubmission {
	return domain.AssetSubmission{
		Class:      domain.AssetClass(req.Class),
		Amount:     req.Amount,
		Attributes: req.Attributes,
	}
}

// HandleSubmit scores a submission and allocates it into a basket
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Callers may supply their own asset ID for idempotent retries
	assetID := req.AssetID
	if assetID == "" {
		assetID = uuid.New().String()
	}

	result, err := h.service.Process(r.Context(), req.toSubmission(), assetID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

// HandleAssess scores a submission without allocating it
func (h *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	assessment, enhanced, err := h.service.Score(r.Context(), req.toSubmission())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"assessment": assessment,
		"enhanced":   enhanced,
	})
}

// HandleListBaskets returns all baskets
func (h *Handler) HandleListBaskets(w http.ResponseWriter, r *http.Request) {
	all, err := h.allocator.Baskets()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"baskets": all,
		"count":   len(all),
	})
}

// HandleGetBasket returns one basket by ID
func (h *Handler) HandleGetBasket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	basket, err := h.allocator.Basket(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if basket == nil {
		h.writeError(w, http.StatusNotFound, "basket not found")
		return
	}

	h.writeJSON(w, http.StatusOK, basket)
}

// writeDomainError maps domain errors to HTTP statuses
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var unknownClass *domain.UnknownAssetClassError
	var persistence *domain.PersistenceError

	switch {
	case errors.As(err, &unknownClass):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInvalidSubmission):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAllocationConflict):
		// Retryable by construction: scoring is idempotent
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &persistence):
		h.log.Error().Err(err).Msg("Basket persistence failure")
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("Unexpected error processing submission")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
