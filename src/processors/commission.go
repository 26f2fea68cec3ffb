// backend/src/processors/commission.go
package processors

import (
	"math"

	"github.com/username/tradelog/backend/src/models"
)

// Brokerage commission schedules, in USD unless noted.
const (
	rakutenFeeRate      = 0.00495 // 0.495% of notional
	moomooFeeRate       = 0.00132 // 0.132% of notional
	commissionCapUSD    = 22.0    // both brokers cap the percentage fee
	fxSurchargePerShare = 0.25    // JPY per share, Rakuten FX handling surcharge
)

// moomooFreeNotionalUSD is the notional at or below which moomoo waives the
// percentage fee entirely (the fee would be at most $8.30).
const moomooFreeNotionalUSD = 8.3 / moomooFeeRate

// CalculateCommission returns the JPY brokerage fee for an entry, rounded to
// the nearest yen. It is called once when the entry is recorded and the result
// is stored on the position; editing prices or rates later does not recompute
// it unless the caller does so explicitly.
//
// Unknown account types charge nothing. Commission here is advisory, not
// authoritative accounting, so failing open beats rejecting the record.
func CalculateCommission(account string, entryPriceUSD float64, shares int, fxRate float64) float64 {
	if account == models.AccountNisa {
		return 0
	}

	notionalUSD := entryPriceUSD * float64(shares)

	switch account {
	case models.AccountRakuten:
		feeUSD := math.Min(notionalUSD*rakutenFeeRate, commissionCapUSD)
		var surchargeJPY float64
		if entryPriceUSD > 0 {
			surchargeJPY = fxSurchargePerShare * float64(shares)
		}
		return math.Round(feeUSD*fxRate + surchargeJPY)

	case models.AccountMoomoo:
		if notionalUSD <= moomooFreeNotionalUSD {
			return 0
		}
		feeUSD := math.Min(notionalUSD*moomooFeeRate, commissionCapUSD)
		return math.Round(feeUSD * fxRate)
	}

	return 0
}
