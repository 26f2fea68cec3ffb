// backend/src/processors/quota.go
package processors

import (
	"strconv"
	"strings"

	"github.com/username/tradelog/backend/src/models"
)

// QuotaUsed sums the stored JPY cost basis of quota-eligible (NISA) positions
// entered in the given calendar year. The year comparison is a prefix match on
// the ISO entry date. Quota consumed by a purchase is never returned, even if
// the position is later sold, so exits are ignored here.
//
// The year is injected by the caller rather than read from the wall clock,
// which keeps this testable.
func QuotaUsed(positions []models.Position, year int) float64 {
	prefix := strconv.Itoa(year)
	var used float64
	for _, p := range positions {
		if p.Account != models.AccountNisa {
			continue
		}
		if !strings.HasPrefix(p.EntryDate, prefix) {
			continue
		}
		used += CostBasis(p)
	}
	return used
}

// QuotaStatusFor reports quota consumption against the annual limit. UsedJPY
// is raw and may exceed the limit; RemainingJPY goes negative in that case.
// Clamping the usage ratio to 100% is the display layer's concern.
func QuotaStatusFor(positions []models.Position, year int, limitJPY float64) models.QuotaStatus {
	used := QuotaUsed(positions, year)
	return models.QuotaStatus{
		Year:         year,
		UsedJPY:      used,
		LimitJPY:     limitJPY,
		RemainingJPY: limitJPY - used,
	}
}
