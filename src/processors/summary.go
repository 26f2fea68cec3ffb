// backend/src/processors/summary.go
package processors

import (
	"math"
	"sort"

	"github.com/username/tradelog/backend/src/models"
)

// Summarize builds portfolio-level statistics over an already-filtered
// collection. "Closed" here means having realized P&L (a partial exit counts);
// zero-P&L trades are neither wins nor losses.
func Summarize(list []models.ComputedPosition) models.Summary {
	s := models.Summary{TotalCount: len(list)}

	var winSum, lossSum float64
	for _, cp := range list {
		s.TotalInvested += cp.Computed.TotalCost
		if cp.Computed.Status != models.StatusClosed {
			s.OpenCount++
		}
		if cp.Computed.RealizedPnl == nil {
			continue
		}
		pnl := *cp.Computed.RealizedPnl
		s.ClosedCount++
		s.TotalRealizedPnl += pnl
		if pnl > 0 {
			s.WinCount++
			winSum += pnl
		} else if pnl < 0 {
			s.LossCount++
			lossSum += pnl
		}
	}

	if s.ClosedCount > 0 {
		rate := float64(s.WinCount) / float64(s.ClosedCount) * 100
		s.WinRate = &rate
	}
	if s.WinCount > 0 {
		s.AverageWin = winSum / float64(s.WinCount)
	}
	if s.LossCount > 0 {
		s.AverageLoss = lossSum / float64(s.LossCount)
	}
	if s.AverageLoss != 0 {
		pf := math.Abs(s.AverageWin / s.AverageLoss)
		s.ProfitFactor = &pf
	}
	return s
}

// SectorBreakdown groups closed positions by sector and sums realized P&L per
// group, sorted by sum descending. Positions without a sector are skipped.
func SectorBreakdown(list []models.ComputedPosition) []models.SectorPnl {
	totals := make(map[string]*models.SectorPnl)
	order := make([]string, 0)
	for _, cp := range list {
		if cp.Computed.RealizedPnl == nil || cp.Position.Sector == "" {
			continue
		}
		entry, ok := totals[cp.Position.Sector]
		if !ok {
			entry = &models.SectorPnl{Sector: cp.Position.Sector}
			totals[cp.Position.Sector] = entry
			order = append(order, cp.Position.Sector)
		}
		entry.RealizedPnl += *cp.Computed.RealizedPnl
		entry.Count++
	}

	out := make([]models.SectorPnl, 0, len(order))
	for _, sector := range order {
		out = append(out, *totals[sector])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RealizedPnl > out[j].RealizedPnl
	})
	return out
}

// LargestTrades returns the closed positions with the maximum and minimum
// realized P&L. Either may be nil when no winning/losing trade exists.
func LargestTrades(list []models.ComputedPosition) (win, loss *models.ExtremeTrade) {
	for _, cp := range list {
		if cp.Computed.RealizedPnl == nil {
			continue
		}
		pnl := *cp.Computed.RealizedPnl
		if pnl > 0 && (win == nil || pnl > win.RealizedPnl) {
			win = &models.ExtremeTrade{PositionID: cp.Position.ID, Ticker: cp.Position.Ticker, RealizedPnl: pnl}
		}
		if pnl < 0 && (loss == nil || pnl < loss.RealizedPnl) {
			loss = &models.ExtremeTrade{PositionID: cp.Position.ID, Ticker: cp.Position.Ticker, RealizedPnl: pnl}
		}
	}
	return win, loss
}

// GroupHoldings rolls up positions that still hold shares by ticker, in first-
// seen order. Cost is the stored basis allocated to the remaining shares; the
// descriptive fields come from the first lot of each group.
func GroupHoldings(list []models.ComputedPosition) []models.HoldingGroup {
	groups := make(map[string]*models.HoldingGroup)
	order := make([]string, 0)
	firstFx := make(map[string]float64)

	for _, cp := range list {
		if cp.Computed.Status == models.StatusClosed {
			continue
		}
		g, ok := groups[cp.Position.Ticker]
		if !ok {
			g = &models.HoldingGroup{
				Ticker:     cp.Position.Ticker,
				Name:       cp.Position.Name,
				Sector:     cp.Position.Sector,
				Account:    cp.Position.Account,
				StopLoss:   cp.Position.StopLoss,
				TakeProfit: cp.Position.TakeProfit,
			}
			groups[cp.Position.Ticker] = g
			order = append(order, cp.Position.Ticker)
			firstFx[cp.Position.Ticker] = cp.Position.EntryFx
		}
		g.Lots++
		g.TotalShares += cp.Computed.RemainingShares
		if cp.Position.Shares > 0 {
			g.TotalCost += cp.Computed.TotalCost * float64(cp.Computed.RemainingShares) / float64(cp.Position.Shares)
		}
	}

	out := make([]models.HoldingGroup, 0, len(order))
	for _, ticker := range order {
		g := groups[ticker]
		if g.TotalShares > 0 {
			g.AvgCostJPY = g.TotalCost / float64(g.TotalShares)
			if fx := firstFx[ticker]; fx > 0 {
				g.AvgCostUSD = g.AvgCostJPY / fx
			}
		}
		out = append(out, *g)
	}
	return out
}

// BuildAnalytics assembles the portfolio-wide analytics block.
func BuildAnalytics(list []models.ComputedPosition, quota models.QuotaStatus) models.Analytics {
	a := models.Analytics{Quota: quota}
	for _, cp := range list {
		if cp.Computed.RealizedPnl == nil {
			continue
		}
		pnl := *cp.Computed.RealizedPnl
		a.TotalRealizedPnl += pnl
		if pnl > 0 {
			a.WinCount++
		} else if pnl < 0 {
			a.LossCount++
		}
	}
	a.LargestWin, a.LargestLoss = LargestTrades(list)
	a.SectorPnl = SectorBreakdown(list)
	return a
}
