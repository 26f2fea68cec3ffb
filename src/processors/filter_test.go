package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradelog/backend/src/models"
)

func filterFixture() []models.ComputedPosition {
	winner := closedWith("AAPL", "Tech", 30000)
	winner.Position.Name = "Apple"
	loser := closedWith("XOM", "Energy", -10000)
	loser.Position.Account = models.AccountRakuten
	open := openPosition("MSFT")
	return []models.ComputedPosition{winner, loser, open}
}

func TestFilter_QueryMatchesTickerAndName(t *testing.T) {
	list := filterFixture()

	assert.Len(t, ApplyFilter(list, Filter{Query: "aap"}), 1)
	assert.Len(t, ApplyFilter(list, Filter{Query: "apple"}), 1, "name matches case-insensitively")
	assert.Len(t, ApplyFilter(list, Filter{Query: "zzz"}), 0)
	assert.Len(t, ApplyFilter(list, Filter{}), 3, "empty filter passes everything")
}

func TestFilter_StatusAndAccount(t *testing.T) {
	list := filterFixture()

	got := ApplyFilter(list, Filter{Status: models.StatusOpen})
	require.Len(t, got, 1)
	assert.Equal(t, "MSFT", got[0].Position.Ticker)

	got = ApplyFilter(list, Filter{Account: models.AccountRakuten})
	require.Len(t, got, 1)
	assert.Equal(t, "XOM", got[0].Position.Ticker)
}

func TestFilter_ResultClassification(t *testing.T) {
	list := filterFixture()
	breakeven := closedWith("IBM", "", 0)
	list = append(list, breakeven)

	wins := ApplyFilter(list, Filter{Result: ResultWin})
	require.Len(t, wins, 1)
	assert.Equal(t, "AAPL", wins[0].Position.Ticker)

	losses := ApplyFilter(list, Filter{Result: ResultLoss})
	require.Len(t, losses, 1)
	assert.Equal(t, "XOM", losses[0].Position.Ticker)

	// Zero or null P&L matches neither win nor loss.
	for _, cp := range append(wins, losses...) {
		assert.NotEqual(t, "IBM", cp.Position.Ticker)
		assert.NotEqual(t, "MSFT", cp.Position.Ticker)
	}
}

func TestFilter_Conjunctive(t *testing.T) {
	list := filterFixture()
	got := ApplyFilter(list, Filter{Query: "AAPL", Status: models.StatusOpen})
	assert.Len(t, got, 0, "all predicates must hold")
}

func TestApplySort_NumericAndDirection(t *testing.T) {
	list := filterFixture() // pnl: 30000, -10000, nil

	desc := ApplySort(list, Sort{Key: "pnl"})
	require.Len(t, desc, 3)
	assert.Equal(t, "AAPL", desc[0].Position.Ticker)
	assert.Equal(t, "XOM", desc[1].Position.Ticker)
	assert.Equal(t, "MSFT", desc[2].Position.Ticker, "null P&L sorts last")

	asc := ApplySort(list, Sort{Key: "pnl", Ascending: true})
	assert.Equal(t, "XOM", asc[0].Position.Ticker)
	assert.Equal(t, "AAPL", asc[1].Position.Ticker)
	assert.Equal(t, "MSFT", asc[2].Position.Ticker, "null P&L sorts last regardless of direction")
}

func TestApplySort_Strings(t *testing.T) {
	list := filterFixture()

	asc := ApplySort(list, Sort{Key: "ticker", Ascending: true})
	assert.Equal(t, "AAPL", asc[0].Position.Ticker)
	assert.Equal(t, "MSFT", asc[1].Position.Ticker)
	assert.Equal(t, "XOM", asc[2].Position.Ticker)

	desc := ApplySort(list, Sort{Key: "ticker"})
	assert.Equal(t, "XOM", desc[0].Position.Ticker)
}

func TestApplySort_DoesNotMutateInput(t *testing.T) {
	list := filterFixture()
	first := list[0].Position.Ticker
	_ = ApplySort(list, Sort{Key: "ticker", Ascending: true})
	assert.Equal(t, first, list[0].Position.Ticker)
}

func TestNextSort_ToggleSemantics(t *testing.T) {
	cur := Sort{Key: "entry_date", Ascending: false}

	// Selecting a new key resets to descending.
	next := NextSort(cur, "pnl")
	assert.Equal(t, Sort{Key: "pnl", Ascending: false}, next)

	// Selecting the same key flips direction.
	next = NextSort(next, "pnl")
	assert.Equal(t, Sort{Key: "pnl", Ascending: true}, next)
	next = NextSort(next, "pnl")
	assert.Equal(t, Sort{Key: "pnl", Ascending: false}, next)
}
