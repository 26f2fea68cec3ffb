// backend/src/handlers/position_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/processors"
	"github.com/username/tradelog/backend/src/security/validation"
	"github.com/username/tradelog/backend/src/services"
	"github.com/username/tradelog/backend/src/utils"
)

type PositionHandler struct {
	positionService services.PositionService
}

func NewPositionHandler(positionService services.PositionService) *PositionHandler {
	return &PositionHandler{positionService: positionService}
}

// PositionListResponse carries the filtered, sorted view plus the summary of
// that same view. The summary always reflects the rows returned, not the
// whole ledger.
type PositionListResponse struct {
	Positions []models.ComputedPosition `json:"positions"`
	Summary   models.Summary            `json:"summary"`
}

// HandleListPositions serves GET /api/positions. Query parameters:
// q (ticker/name substring), status, account, result (win|loss),
// sort (column key) and dir (asc|desc).
func (h *PositionHandler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	positions, err := h.positionService.ListPositions(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list positions", "error", err)
		utils.SendJSONError(w, "Failed to load positions", http.StatusInternalServerError)
		return
	}

	computed := processors.ComputeAll(positions)

	q := r.URL.Query()
	filter := processors.Filter{
		Query:   q.Get("q"),
		Status:  q.Get("status"),
		Account: q.Get("account"),
		Result:  q.Get("result"),
	}
	computed = processors.ApplyFilter(computed, filter)

	if sortKey := q.Get("sort"); sortKey != "" {
		sort := processors.Sort{Key: sortKey, Ascending: q.Get("dir") == "asc"}
		computed = processors.ApplySort(computed, sort)
	}

	resp := PositionListResponse{
		Positions: computed,
		Summary:   processors.Summarize(computed),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode positions response", "error", err)
	}
}

func (h *PositionHandler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	positionID, err := positionIDParam(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	p, err := h.positionService.GetPosition(userID, positionID)
	if err != nil {
		if errors.Is(err, services.ErrPositionNotFound) {
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to get position", "positionID", positionID, "error", err)
		utils.SendJSONError(w, "Failed to load position", http.StatusInternalServerError)
		return
	}

	writeComputedPosition(w, r, *p)
}

func (h *PositionHandler) HandleCreatePosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var p models.Position
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.positionService.CreatePosition(userID, &p); err != nil {
		if isValidationError(err) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to create position", "ticker", p.Ticker, "error", err)
		utils.SendJSONError(w, "Failed to create position", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Position created", "positionID", p.ID, "ticker", p.Ticker)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeComputedPositionBody(w, r, p)
}

func (h *PositionHandler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	positionID, err := positionIDParam(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	var p models.Position
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.positionService.UpdatePosition(userID, positionID, &p); err != nil {
		switch {
		case errors.Is(err, services.ErrPositionNotFound):
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
		case isValidationError(err):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.FromContext(r.Context()).Error("Failed to update position", "positionID", positionID, "error", err)
			utils.SendJSONError(w, "Failed to update position", http.StatusInternalServerError)
		}
		return
	}

	writeComputedPosition(w, r, p)
}

func (h *PositionHandler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	positionID, err := positionIDParam(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	if err := h.positionService.DeletePosition(userID, positionID); err != nil {
		if errors.Is(err, services.ErrPositionNotFound) {
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to delete position", "positionID", positionID, "error", err)
		utils.SendJSONError(w, "Failed to delete position", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Position deleted", "positionID", positionID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddExit serves POST /api/positions/{positionID}/exits. The exit's
// pnl/pnlPct are computed server-side at the current figures and frozen; a
// request for more shares than remain is rejected without writing.
func (h *PositionHandler) HandleAddExit(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	positionID, err := positionIDParam(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	var exit models.Exit
	if err := json.NewDecoder(r.Body).Decode(&exit); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.positionService.AddExit(userID, positionID, exit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPositionNotFound):
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
		case errors.Is(err, services.ErrExitExceedsRemaining):
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		case isValidationError(err):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.FromContext(r.Context()).Error("Failed to add exit", "positionID", positionID, "error", err)
			utils.SendJSONError(w, "Failed to record exit", http.StatusInternalServerError)
		}
		return
	}

	logger.FromContext(r.Context()).Info("Exit recorded", "positionID", positionID, "shares", exit.Shares)
	writeComputedPosition(w, r, *p)
}

// HandleRemoveExit serves DELETE /api/positions/{positionID}/exits/{index}.
// Index is the zero-based place in the recording order.
func (h *PositionHandler) HandleRemoveExit(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	positionID, err := positionIDParam(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.SendJSONError(w, "Invalid exit index", http.StatusBadRequest)
		return
	}

	p, err := h.positionService.RemoveExit(userID, positionID, index)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPositionNotFound):
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
		case errors.Is(err, services.ErrExitIndexOutOfRange):
			utils.SendJSONError(w, "Exit index out of range", http.StatusNotFound)
		default:
			logger.FromContext(r.Context()).Error("Failed to remove exit", "positionID", positionID, "index", index, "error", err)
			utils.SendJSONError(w, "Failed to remove exit", http.StatusInternalServerError)
		}
		return
	}

	logger.FromContext(r.Context()).Info("Exit removed", "positionID", positionID, "index", index)
	writeComputedPosition(w, r, *p)
}

func positionIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "positionID"), 10, 64)
}

func isValidationError(err error) bool {
	return errors.Is(err, validation.ErrValidationFailed)
}

func writeComputedPosition(w http.ResponseWriter, r *http.Request, p models.Position) {
	w.Header().Set("Content-Type", "application/json")
	writeComputedPositionBody(w, r, p)
}

func writeComputedPositionBody(w http.ResponseWriter, r *http.Request, p models.Position) {
	cp := models.ComputedPosition{Position: p, Computed: processors.Compute(p)}
	if err := json.NewEncoder(w).Encode(cp); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode position response", "error", err)
	}
}
