package notion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapsJapaneseHeaders(t *testing.T) {
	csvData := "ティッカー,エントリー,取得単価（ドル）,取得株数,PER,備考\n" +
		"aapl,2025/3/7,50,100,28.4,long term hold\n"

	p := NewParser()
	positions, err := p.Parse(strings.NewReader(csvData), 150)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, "AAPL", pos.Ticker)
	assert.Equal(t, "2025-03-07", pos.EntryDate)
	assert.Equal(t, 50.0, pos.EntryPrice)
	assert.Equal(t, 100, pos.Shares)
	assert.Equal(t, 150.0, pos.EntryFx)
	assert.Equal(t, "nisa", pos.Account)
	assert.Equal(t, "long term hold", pos.Note)
	require.NotNil(t, pos.PER)
	assert.Equal(t, 28.4, *pos.PER)
	assert.Empty(t, pos.Exits)
}

func TestParseDerivesTotalCostWhenColumnMissing(t *testing.T) {
	csvData := "Ticker,Entry Date,Entry Price,Shares\n" +
		"MSFT,2025-01-15,50,100\n"

	p := NewParser()
	positions, err := p.Parse(strings.NewReader(csvData), 150)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	// round(50 * 150 * 100)
	assert.Equal(t, 750000.0, positions[0].TotalCost)
}

func TestParsePrefersStoredTotalCost(t *testing.T) {
	csvData := "Ticker,Entry Date,Entry Price,Shares,投資元本（円）\n" +
		"MSFT,2025-01-15,50,100,\"¥751,234\"\n"

	p := NewParser()
	positions, err := p.Parse(strings.NewReader(csvData), 150)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 751234.0, positions[0].TotalCost)
}

func TestParseBuildsSyntheticExit(t *testing.T) {
	csvData := "ティッカー,エントリー,取得単価（ドル）,取得株数,クローズ,売却株数,損益（円）\n" +
		"NVDA,2025/1/5,50,100,2025/6/20,40,\"¥30,000\"\n"

	p := NewParser()
	positions, err := p.Parse(strings.NewReader(csvData), 150)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	require.Len(t, pos.Exits, 1)
	exit := pos.Exits[0]
	assert.Equal(t, 40, exit.Shares)
	assert.Equal(t, "2025-06-20", exit.Date)
	assert.Equal(t, 0.0, exit.Price) // no USD sell price in Notion exports
	assert.Equal(t, 150.0, exit.Fx)
	assert.Equal(t, 30000.0, exit.Pnl)
	// costOfSold = 750000 * 40/100 = 300000; 30000/300000 = 10%
	assert.InDelta(t, 10.0, exit.PnlPct, 1e-9)
}

func TestParseSkipsRowsWithoutTicker(t *testing.T) {
	csvData := "Ticker,Entry Date,Shares\n" +
		",2025-01-01,10\n" +
		"TSLA,2025-02-01,5\n"

	p := NewParser()
	positions, err := p.Parse(strings.NewReader(csvData), 150)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "TSLA", positions[0].Ticker)
}

func TestParseRequiresTickerColumn(t *testing.T) {
	csvData := "Foo,Bar\n1,2\n"

	p := NewParser()
	_, err := p.Parse(strings.NewReader(csvData), 150)
	assert.Error(t, err)
}

func TestFormatNotionDate(t *testing.T) {
	assert.Equal(t, "2025-03-07", formatNotionDate("2025/3/7"))
	assert.Equal(t, "2025-12-31", formatNotionDate("2025-12-31"))
	assert.Equal(t, "2024-01-02", formatNotionDate("January 2, 2024 (2024/1/2)"))
	assert.Equal(t, "", formatNotionDate("not a date"))
	assert.Equal(t, "", formatNotionDate(""))
}

func TestParseIgnoresUnmappedExitWithoutShares(t *testing.T) {
	// Exit date alone is not enough to synthesize an exit.
	csvData := "Ticker,Entry Date,Entry Price,Shares,Exit Date\n" +
		"AMD,2025-01-01,50,10,2025-02-01\n"

	p := NewParser()
	positions, err := p.Parse(strings.NewReader(csvData), 150)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Empty(t, positions[0].Exits)
}
