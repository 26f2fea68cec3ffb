package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/tradelog/backend/src/models"
)

func quotaPosition(account, entryDate string, totalCost float64) models.Position {
	return models.Position{
		Ticker:    "VOO",
		Account:   account,
		EntryDate: entryDate,
		Shares:    1,
		TotalCost: totalCost,
	}
}

func TestQuotaUsed_FiltersByYearAndAccount(t *testing.T) {
	positions := []models.Position{
		quotaPosition(models.AccountNisa, "2026-01-15", 500000),
		quotaPosition(models.AccountNisa, "2026-11-02", 300000),
		quotaPosition(models.AccountNisa, "2025-12-31", 999999), // prior year never contributes
		quotaPosition(models.AccountRakuten, "2026-03-01", 400000),
		quotaPosition(models.AccountMoomoo, "2026-03-01", 400000),
	}

	assert.Equal(t, 800000.0, QuotaUsed(positions, 2026))
	assert.Equal(t, 999999.0, QuotaUsed(positions, 2025))
	assert.Equal(t, 0.0, QuotaUsed(positions, 2024))
}

func TestQuotaUsed_IgnoresExits(t *testing.T) {
	// Quota once consumed is not returned when the position is sold.
	p := quotaPosition(models.AccountNisa, "2026-05-01", 600000)
	p.Exits = []models.Exit{{Shares: 1, Price: 100, Fx: 150, Pnl: 1}}
	assert.Equal(t, 600000.0, QuotaUsed([]models.Position{p}, 2026))
}

func TestQuotaUsed_MissingEntryDate(t *testing.T) {
	p := quotaPosition(models.AccountNisa, "", 600000)
	assert.Equal(t, 0.0, QuotaUsed([]models.Position{p}, 2026))
}

func TestQuotaStatusFor_RawOverflow(t *testing.T) {
	positions := []models.Position{
		quotaPosition(models.AccountNisa, "2026-01-15", 2000000),
		quotaPosition(models.AccountNisa, "2026-06-15", 900000),
	}
	status := QuotaStatusFor(positions, 2026, 2400000)

	assert.Equal(t, 2900000.0, status.UsedJPY, "raw usage may exceed the limit")
	assert.Equal(t, -500000.0, status.RemainingJPY)
	assert.Equal(t, 2400000.0, status.LimitJPY)
	assert.Equal(t, 2026, status.Year)
}

func TestQuotaUsed_FallsBackToEntryCostFormula(t *testing.T) {
	p := models.Position{
		Account:    models.AccountNisa,
		EntryDate:  "2026-04-01",
		Shares:     10,
		EntryPrice: 100,
		EntryFx:    150,
	}
	assert.Equal(t, 150000.0, QuotaUsed([]models.Position{p}, 2026))
}
