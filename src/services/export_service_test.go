package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/processors"
)

func TestBuildPositionsCSV(t *testing.T) {
	p := models.Position{
		Ticker:     "NVDA",
		Name:       "NVIDIA",
		Sector:     "Tech",
		Account:    models.AccountNisa,
		EntryDate:  "2025-03-07",
		Shares:     100,
		EntryPrice: 50,
		EntryFx:    150,
		TotalCost:  750000,
		Exits: []models.Exit{
			{Shares: 40, Price: 55, Fx: 150, Date: "2025-06-20", Pnl: 30000, PnlPct: 10},
		},
	}
	list := processors.ComputeAll([]models.Position{p})

	data, err := BuildPositionsCSV(list)
	require.NoError(t, err)

	// BOM prefix for spreadsheet tools
	require.True(t, bytes.HasPrefix(data, []byte("\uFEFF")))

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF")))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header, row := records[0], records[1]
	require.Equal(t, len(header), len(row))

	byName := map[string]string{}
	for i, h := range header {
		byName[h] = row[i]
	}
	assert.Equal(t, "NVDA", byName["ticker"])
	assert.Equal(t, "750000", byName["total_cost_jpy"])
	assert.Equal(t, "partial", byName["status"])
	assert.Equal(t, "40", byName["exited_shares"])
	assert.Equal(t, "30000", byName["realized_pnl_jpy"])
	assert.Equal(t, "10.00", byName["realized_pnl_pct"])
	// optional cells stay empty, never zero
	assert.Equal(t, "", byName["per"])
}

func TestBuildPositionsCSVGuardsFormulaInjection(t *testing.T) {
	p := models.Position{
		Ticker:     "NVDA",
		Name:       "=HYPERLINK(\"http://evil\")",
		Account:    models.AccountNisa,
		EntryDate:  "2025-03-07",
		Shares:     10,
		EntryPrice: 50,
		EntryFx:    150,
	}
	list := processors.ComputeAll([]models.Position{p})

	data, err := BuildPositionsCSV(list)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF")))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// name column is second
	assert.True(t, strings.HasPrefix(records[1][1], "'="), "formula prefix must be neutralized, got %q", records[1][1])
}

func TestBuildPositionsCSVEmptyLedger(t *testing.T) {
	data, err := BuildPositionsCSV(nil)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF")))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1) // header only
}
