// backend/src/handlers/summary_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/username/tradelog/backend/src/config"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/processors"
	"github.com/username/tradelog/backend/src/services"
	"github.com/username/tradelog/backend/src/utils"
)

type SummaryHandler struct {
	positionService services.PositionService
}

func NewSummaryHandler(positionService services.PositionService) *SummaryHandler {
	return &SummaryHandler{positionService: positionService}
}

// HandleGetAnalytics serves GET /api/analytics: full-ledger summary, sector
// breakdown, extreme trades and the current year's quota status. An optional
// ?year= overrides the quota year.
func (h *SummaryHandler) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	positions, err := h.positionService.ListPositions(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list positions for analytics", "error", err)
		utils.SendJSONError(w, "Failed to load analytics", http.StatusInternalServerError)
		return
	}

	year := quotaYearParam(r)
	quota := processors.QuotaStatusFor(positions, year, config.Cfg.QuotaAnnualLimitJPY)
	analytics := processors.BuildAnalytics(processors.ComputeAll(positions), quota)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(analytics); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode analytics response", "error", err)
	}
}

// HandleGetHoldings serves GET /api/holdings: per-ticker rollup of positions
// that still hold shares.
func (h *SummaryHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	positions, err := h.positionService.ListPositions(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list positions for holdings", "error", err)
		utils.SendJSONError(w, "Failed to load holdings", http.StatusInternalServerError)
		return
	}

	holdings := processors.GroupHoldings(processors.ComputeAll(positions))
	if holdings == nil {
		holdings = []models.HoldingGroup{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(holdings); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode holdings response", "error", err)
	}
}

// HandleGetQuota serves GET /api/quota?year=YYYY (default: current year).
func (h *SummaryHandler) HandleGetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	positions, err := h.positionService.ListPositions(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list positions for quota", "error", err)
		utils.SendJSONError(w, "Failed to load quota", http.StatusInternalServerError)
		return
	}

	year := quotaYearParam(r)
	quota := processors.QuotaStatusFor(positions, year, config.Cfg.QuotaAnnualLimitJPY)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(quota); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode quota response", "error", err)
	}
}

func quotaYearParam(r *http.Request) int {
	if s := r.URL.Query().Get("year"); s != "" {
		if y, err := strconv.Atoi(s); err == nil && y > 0 {
			return y
		}
	}
	return time.Now().Year()
}
