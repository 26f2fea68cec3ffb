// backend/src/services/export_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/security/validation"
)

var exportHeader = []string{
	"ticker", "name", "account", "sector", "strategy", "entry_date",
	"shares", "entry_price_usd", "entry_fx", "entry_jpy", "total_cost_jpy",
	"commission_jpy", "per", "per_fwd", "delivery_date", "entry_reason",
	"stop_loss_usd", "take_profit_usd", "status", "exited_shares",
	"realized_pnl_jpy", "realized_pnl_pct", "note",
}

// BuildPositionsCSV renders stored plus derived fields as CSV. The output is
// UTF-8 with a BOM so spreadsheet tools pick up the encoding, and free-text
// cells are guarded against formula injection.
func BuildPositionsCSV(list []models.ComputedPosition) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	for _, cp := range list {
		p, c := cp.Position, cp.Computed
		row := []string{
			cell(p.Ticker),
			cell(p.Name),
			cell(p.Account),
			cell(p.Sector),
			cell(p.Strategy),
			p.EntryDate,
			strconv.Itoa(p.Shares),
			formatFloat(p.EntryPrice, 2),
			formatFloat(p.EntryFx, 2),
			formatFloat(c.EntryJPY, 0),
			formatFloat(c.TotalCost, 0),
			formatFloat(p.Commission, 0),
			formatOptional(p.PER, 1),
			formatOptional(p.PERFwd, 1),
			p.DeliveryDate,
			cell(p.EntryReason),
			formatOptional(p.StopLoss, 2),
			formatOptional(p.TakeProfit, 2),
			c.Status,
			strconv.Itoa(c.ExitedShares),
			formatOptional(c.RealizedPnl, 0),
			formatOptional(c.RealizedPnlPct, 2),
			cell(p.Note),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv row for %s: %w", p.Ticker, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(s string) string {
	return validation.SanitizeForFormulaInjection(s)
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// formatOptional renders an absent value as an empty cell, never as 0.
func formatOptional(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
