// backend/src/handlers/export_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/processors"
	"github.com/username/tradelog/backend/src/services"
	"github.com/username/tradelog/backend/src/utils"
)

type ExportHandler struct {
	positionService services.PositionService
}

func NewExportHandler(positionService services.PositionService) *ExportHandler {
	return &ExportHandler{positionService: positionService}
}

// HandleExportCSV serves GET /api/positions/export as a CSV download of the
// full ledger, stored fields plus derived figures.
func (h *ExportHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	positions, err := h.positionService.ListPositions(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list positions for export", "error", err)
		utils.SendJSONError(w, "Failed to export positions", http.StatusInternalServerError)
		return
	}

	data, err := services.BuildPositionsCSV(processors.ComputeAll(positions))
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to build CSV export", "error", err)
		utils.SendJSONError(w, "Failed to export positions", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("tradelog_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write CSV export", "error", err)
	}
}
