// backend/src/handlers/import_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/tradelog/backend/src/config"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/services"
	"github.com/username/tradelog/backend/src/utils"
)

type ImportHandler struct {
	positionService services.PositionService
	fxService       services.FxService
	parser          services.PositionParser
}

func NewImportHandler(positionService services.PositionService, fxService services.FxService, parser services.PositionParser) *ImportHandler {
	return &ImportHandler{
		positionService: positionService,
		fxService:       fxService,
		parser:          parser,
	}
}

// HandleImport serves POST /api/positions/import with a multipart 'file'
// field holding a CSV export. Parsed rows are inserted permissively; the
// response reports how many made it in.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxImportSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxImportSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxImportSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxImportSizeBytes {
		ctxLogger.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxImportSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxImportSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	fxRate, err := h.fxService.CurrentRate(userID)
	if err != nil {
		ctxLogger.Error("Failed to resolve FX rate for import", "error", err)
		utils.SendJSONError(w, "Failed to resolve FX rate", http.StatusInternalServerError)
		return
	}

	positions, err := h.parser.Parse(file, fxRate)
	if err != nil {
		ctxLogger.Warn("CSV parsing failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "Could not parse the uploaded file as a trade-log CSV", http.StatusBadRequest)
		return
	}
	if len(positions) == 0 {
		utils.SendJSONError(w, "No importable rows found in the file", http.StatusBadRequest)
		return
	}

	imported, err := h.positionService.ImportPositions(userID, positions)
	if err != nil {
		ctxLogger.Error("Import failed", "error", err)
		utils.SendJSONError(w, "Failed to import positions", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Import completed", "filename", fileHeader.Filename, "parsed", len(positions), "imported", imported)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"parsed":   len(positions),
		"imported": imported,
	})
}
