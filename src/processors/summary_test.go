package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradelog/backend/src/models"
)

// closedWith builds a fully exited position whose realized P&L derives to pnl.
func closedWith(ticker, sector string, pnl float64) models.ComputedPosition {
	p := models.Position{Ticker: ticker, Sector: sector, Account: models.AccountNisa,
		Shares: 1, EntryPrice: 100, EntryFx: 150, TotalCost: 15000}
	exitJPY := 15000 + pnl
	p.Exits = []models.Exit{{Shares: 1, Price: exitJPY / 150, Fx: 150, Pnl: pnl}}
	return models.ComputedPosition{Position: p, Computed: Compute(p)}
}

func openPosition(ticker string) models.ComputedPosition {
	p := models.Position{Ticker: ticker, Account: models.AccountNisa,
		Shares: 10, EntryPrice: 50, EntryFx: 150}
	return models.ComputedPosition{Position: p, Computed: Compute(p)}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Nil(t, s.WinRate, "win rate undefined with zero closed trades")
	assert.Nil(t, s.ProfitFactor)
	assert.Equal(t, 0.0, s.TotalRealizedPnl)
	assert.Equal(t, 0, s.TotalCount)
}

func TestSummarize_MixedPortfolio(t *testing.T) {
	list := []models.ComputedPosition{
		closedWith("A", "", 30000),
		closedWith("B", "", 10000),
		closedWith("C", "", -20000),
		openPosition("D"),
	}
	s := Summarize(list)

	assert.Equal(t, 4, s.TotalCount)
	assert.Equal(t, 3, s.ClosedCount)
	assert.Equal(t, 2, s.WinCount)
	assert.Equal(t, 1, s.LossCount)
	assert.Equal(t, 1, s.OpenCount)
	assert.Equal(t, 20000.0, s.TotalRealizedPnl)
	// Invested covers the whole collection, including the open lot.
	assert.Equal(t, 3*15000.0+75000.0, s.TotalInvested)

	require.NotNil(t, s.WinRate)
	assert.InDelta(t, 200.0/3.0, *s.WinRate, 1e-9)
	assert.Equal(t, 20000.0, s.AverageWin)
	assert.Equal(t, -20000.0, s.AverageLoss)
	require.NotNil(t, s.ProfitFactor)
	assert.InDelta(t, 1.0, *s.ProfitFactor, 1e-9)
}

func TestSummarize_ProfitFactorUndefinedWithoutLosses(t *testing.T) {
	s := Summarize([]models.ComputedPosition{closedWith("A", "", 5000)})
	require.NotNil(t, s.WinRate)
	assert.Equal(t, 100.0, *s.WinRate)
	assert.Nil(t, s.ProfitFactor, "no losing trades means no defined profit factor")
}

func TestSummarize_ZeroPnlIsNeitherWinNorLoss(t *testing.T) {
	s := Summarize([]models.ComputedPosition{closedWith("A", "", 0)})
	assert.Equal(t, 1, s.ClosedCount)
	assert.Equal(t, 0, s.WinCount)
	assert.Equal(t, 0, s.LossCount)
	require.NotNil(t, s.WinRate)
	assert.Equal(t, 0.0, *s.WinRate)
}

func TestSectorBreakdown_SortedDescending(t *testing.T) {
	list := []models.ComputedPosition{
		closedWith("A", "Tech", 10000),
		closedWith("B", "Energy", -5000),
		closedWith("C", "Tech", 20000),
		closedWith("D", "Health", 4000),
		openPosition("E"), // no realized P&L, skipped
		closedWith("F", "", 7000), // no sector, skipped
	}
	got := SectorBreakdown(list)

	require.Len(t, got, 3)
	assert.Equal(t, models.SectorPnl{Sector: "Tech", RealizedPnl: 30000, Count: 2}, got[0])
	assert.Equal(t, models.SectorPnl{Sector: "Health", RealizedPnl: 4000, Count: 1}, got[1])
	assert.Equal(t, models.SectorPnl{Sector: "Energy", RealizedPnl: -5000, Count: 1}, got[2])
}

func TestLargestTrades(t *testing.T) {
	list := []models.ComputedPosition{
		closedWith("A", "", 10000),
		closedWith("B", "", 50000),
		closedWith("C", "", -3000),
		closedWith("D", "", -40000),
	}
	win, loss := LargestTrades(list)

	require.NotNil(t, win)
	assert.Equal(t, "B", win.Ticker)
	assert.Equal(t, 50000.0, win.RealizedPnl)
	require.NotNil(t, loss)
	assert.Equal(t, "D", loss.Ticker)
	assert.Equal(t, -40000.0, loss.RealizedPnl)
}

func TestLargestTrades_NoneClosed(t *testing.T) {
	win, loss := LargestTrades([]models.ComputedPosition{openPosition("A")})
	assert.Nil(t, win)
	assert.Nil(t, loss)
}

func TestGroupHoldings(t *testing.T) {
	// Two lots of MSFT (one partially exited) and one closed AAPL.
	lot1 := models.Position{Ticker: "MSFT", Name: "Microsoft", Sector: "Tech",
		Account: models.AccountNisa, Shares: 100, EntryPrice: 50, EntryFx: 150, TotalCost: 750000}
	lot1.Exits = []models.Exit{{Shares: 40, Price: 55, Fx: 150}}
	lot2 := models.Position{Ticker: "MSFT", Account: models.AccountNisa,
		Shares: 50, EntryPrice: 60, EntryFx: 152, TotalCost: 456000}
	closed := closedWith("AAPL", "Tech", 1000).Position

	list := ComputeAll([]models.Position{lot1, lot2, closed})
	groups := GroupHoldings(list)

	require.Len(t, groups, 1, "closed positions are excluded")
	g := groups[0]
	assert.Equal(t, "MSFT", g.Ticker)
	assert.Equal(t, "Microsoft", g.Name)
	assert.Equal(t, 2, g.Lots)
	assert.Equal(t, 110, g.TotalShares)
	// Allocated cost: 750000*60/100 + 456000*50/50
	assert.InDelta(t, 450000+456000, g.TotalCost, 1e-6)
	assert.InDelta(t, g.TotalCost/110, g.AvgCostJPY, 1e-9)
	// USD average converts at the first lot's captured rate.
	assert.InDelta(t, g.AvgCostJPY/150, g.AvgCostUSD, 1e-9)
}

func TestBuildAnalytics(t *testing.T) {
	list := []models.ComputedPosition{
		closedWith("A", "Tech", 10000),
		closedWith("B", "Energy", -4000),
		openPosition("C"),
	}
	quota := models.QuotaStatus{Year: 2026, UsedJPY: 100000, LimitJPY: 2400000, RemainingJPY: 2300000}
	a := BuildAnalytics(list, quota)

	assert.Equal(t, 6000.0, a.TotalRealizedPnl)
	assert.Equal(t, 1, a.WinCount)
	assert.Equal(t, 1, a.LossCount)
	require.NotNil(t, a.LargestWin)
	assert.Equal(t, "A", a.LargestWin.Ticker)
	require.NotNil(t, a.LargestLoss)
	assert.Equal(t, "B", a.LargestLoss.Ticker)
	require.Len(t, a.SectorPnl, 2)
	assert.Equal(t, quota, a.Quota)
}
