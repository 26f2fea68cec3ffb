// backend/src/processors/accounting.go
package processors

import (
	"math"

	"github.com/username/tradelog/backend/src/models"
)

// CostBasis returns the JPY cost basis for a position. The stored total_cost
// is authoritative (exit P&L was frozen against it); the entry-cost formula is
// the fallback for records that never had one persisted.
func CostBasis(p models.Position) float64 {
	if p.TotalCost > 0 {
		return p.TotalCost
	}
	return EntryCost(p.Shares, p.EntryPrice, p.EntryFx, p.Commission)
}

// EntryCost computes the rounded JPY cost basis for an entry. This is the only
// rounding point for the basis: every downstream proportional allocation works
// from this value, so rounding error is bounded to this single step.
func EntryCost(shares int, entryPriceUSD, fxRate, commissionJPY float64) float64 {
	return math.Round(float64(shares)*entryPriceUSD*fxRate + commissionJPY)
}

// Compute derives cost basis, exit totals, realized P&L and lifecycle status
// from a position's stored fields. It is a pure projection: the position is
// never mutated and nothing is cached on it.
func Compute(p models.Position) models.Computed {
	entryJPY := p.EntryPrice * p.EntryFx
	totalCost := CostBasis(p)

	var exitedShares int
	var proceedsJPY float64
	for _, ex := range p.Exits {
		exitedShares += ex.Shares
		proceedsJPY += float64(ex.Shares) * ex.Price * ex.Fx
	}

	c := models.Computed{
		EntryJPY:        entryJPY,
		TotalCost:       totalCost,
		ExitedShares:    exitedShares,
		RemainingShares: p.Shares - exitedShares,
	}

	if exitedShares > 0 && p.Shares > 0 {
		// costOfSold apportions the already-rounded basis across the exited
		// fraction in full precision. Rounding it here would drift across
		// sequential partial exits; only the final subtraction is rounded.
		costOfSold := totalCost * float64(exitedShares) / float64(p.Shares)
		pnl := math.Round(proceedsJPY - costOfSold)
		c.RealizedPnl = &pnl
		if costOfSold > 0 {
			pct := pnl / costOfSold * 100
			c.RealizedPnlPct = &pct
		}
	}

	switch {
	case c.RemainingShares <= 0:
		c.Status = models.StatusClosed
	case exitedShares > 0:
		c.Status = models.StatusPartial
	default:
		c.Status = models.StatusOpen
	}
	return c
}

// PriceExit computes the frozen pnl/pnlPct for a new disposal slice against
// the position's stored cost basis, restricted to that slice's share count.
// Validating shares against the remaining balance is the caller's job; this
// only prices the slice.
func PriceExit(p models.Position, shares int, priceUSD, fxRate float64) (pnl, pnlPct float64) {
	proceedsJPY := float64(shares) * priceUSD * fxRate
	costOfSold := CostBasis(p) * float64(shares) / float64(p.Shares)
	pnl = math.Round(proceedsJPY - costOfSold)
	if costOfSold > 0 {
		pnlPct = pnl / costOfSold * 100
	}
	return pnl, pnlPct
}

// ComputeAll maps a stored snapshot through Compute. Views are always
// re-derived from scratch; at personal-ledger scale there is no need for
// incremental aggregation.
func ComputeAll(positions []models.Position) []models.ComputedPosition {
	out := make([]models.ComputedPosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, models.ComputedPosition{Position: p, Computed: Compute(p)})
	}
	return out
}
