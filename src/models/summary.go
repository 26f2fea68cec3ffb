package models

// Summary holds portfolio-level statistics over a (possibly filtered)
// collection of positions. WinRate and ProfitFactor are nil when undefined
// (no closed trades / no losing trades) rather than zero.
type Summary struct {
	TotalRealizedPnl float64  `json:"total_realized_pnl"`
	TotalInvested    float64  `json:"total_invested"`
	TotalCount       int      `json:"total_count"`
	ClosedCount      int      `json:"closed_count"`
	WinCount         int      `json:"win_count"`
	LossCount        int      `json:"loss_count"`
	OpenCount        int      `json:"open_count"` // open or partial
	WinRate          *float64 `json:"win_rate"`
	AverageWin       float64  `json:"average_win"`
	AverageLoss      float64  `json:"average_loss"` // signed, typically negative
	ProfitFactor     *float64 `json:"profit_factor"`
}

// SectorPnl is the realized P&L total for one sector, over closed positions.
type SectorPnl struct {
	Sector      string  `json:"sector"`
	RealizedPnl float64 `json:"realized_pnl"`
	Count       int     `json:"count"`
}

// ExtremeTrade identifies the closed position with the largest win or loss.
type ExtremeTrade struct {
	PositionID  int64   `json:"position_id"`
	Ticker      string  `json:"ticker"`
	RealizedPnl float64 `json:"realized_pnl"`
}

// Analytics is the portfolio-wide analytics block.
type Analytics struct {
	TotalRealizedPnl float64       `json:"total_realized_pnl"`
	WinCount         int           `json:"win_count"`
	LossCount        int           `json:"loss_count"`
	LargestWin       *ExtremeTrade `json:"largest_win"`
	LargestLoss      *ExtremeTrade `json:"largest_loss"`
	SectorPnl        []SectorPnl   `json:"sector_pnl"`
	Quota            QuotaStatus   `json:"quota"`
}

// QuotaStatus reports annual tax-advantaged quota consumption. UsedJPY is the
// raw sum and may exceed the limit; clamping is a display concern.
type QuotaStatus struct {
	Year         int     `json:"year"`
	UsedJPY      float64 `json:"used_jpy"`
	LimitJPY     float64 `json:"limit_jpy"`
	RemainingJPY float64 `json:"remaining_jpy"`
}

// HoldingGroup is a per-ticker rollup of positions that still hold shares.
// Costs are the stored cost basis allocated to the remaining shares.
type HoldingGroup struct {
	Ticker      string   `json:"ticker"`
	Name        string   `json:"name,omitempty"`
	Sector      string   `json:"sector,omitempty"`
	Account     string   `json:"account"`
	Lots        int      `json:"lots"`
	TotalShares int      `json:"total_shares"`
	TotalCost   float64  `json:"total_cost_jpy"`
	AvgCostJPY  float64  `json:"avg_cost_jpy"`
	AvgCostUSD  float64  `json:"avg_cost_usd"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	TakeProfit  *float64 `json:"take_profit,omitempty"`
}
