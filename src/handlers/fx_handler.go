// backend/src/handlers/fx_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/services"
	"github.com/username/tradelog/backend/src/utils"
)

type FxHandler struct {
	fxService services.FxService
}

func NewFxHandler(fxService services.FxService) *FxHandler {
	return &FxHandler{fxService: fxService}
}

type fxResponse struct {
	Rate float64 `json:"rate"`
	// Stale is set when a refresh failed and the previous rate stayed in
	// effect.
	Stale bool `json:"stale,omitempty"`
}

func (h *FxHandler) HandleGetRate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	rate, err := h.fxService.CurrentRate(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load FX rate", "error", err)
		utils.SendJSONError(w, "Failed to load FX rate", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fxResponse{Rate: rate})
}

func (h *FxHandler) HandleSetRate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.fxService.SetRate(userID, body.Rate); err != nil {
		logger.FromContext(r.Context()).Warn("Rejected FX rate update", "rate", body.Rate, "error", err)
		utils.SendJSONError(w, "FX rate must be a positive number", http.StatusBadRequest)
		return
	}

	logger.FromContext(r.Context()).Info("FX rate updated", "rate", body.Rate)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fxResponse{Rate: body.Rate})
}

// HandleRefreshRate serves POST /api/fx/refresh. A failed upstream fetch is
// not an error to the client: the stored rate comes back marked stale.
func (h *FxHandler) HandleRefreshRate(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	rate, err := h.fxService.Refresh(userID)
	if err != nil && !errors.Is(err, services.ErrFxFetchFailed) {
		logger.FromContext(r.Context()).Error("FX refresh failed", "error", err)
		utils.SendJSONError(w, "Failed to refresh FX rate", http.StatusInternalServerError)
		return
	}

	stale := errors.Is(err, services.ErrFxFetchFailed)
	if stale {
		logger.FromContext(r.Context()).Warn("FX refresh fell back to stored rate", "rate", rate)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fxResponse{Rate: rate, Stale: stale})
}
