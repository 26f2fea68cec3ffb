// backend/src/processors/filter.go
package processors

import (
	"sort"
	"strings"

	"github.com/username/tradelog/backend/src/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Result filter values. A position matches "win" only when its realized P&L is
// strictly positive and "loss" only when strictly negative; null or zero P&L
// matches neither.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

// Filter holds the optional, conjunctive predicates for a list view. It is an
// explicit value passed per call, so different views can filter concurrently
// without shared state.
type Filter struct {
	Query   string // case-insensitive substring on ticker or name
	Status  string // open / partial / closed
	Account string
	Result  string // win / loss
}

// Sort is the explicit view-state for ordering: one key plus a direction.
type Sort struct {
	Key       string
	Ascending bool
}

// NextSort returns the sort state after the user selects key: selecting the
// current key flips direction, selecting a new key resets to descending.
func NextSort(cur Sort, key string) Sort {
	if cur.Key == key {
		return Sort{Key: key, Ascending: !cur.Ascending}
	}
	return Sort{Key: key, Ascending: false}
}

// Match reports whether a computed position passes every set predicate.
func (f Filter) Match(cp models.ComputedPosition) bool {
	if f.Query != "" {
		q := strings.ToUpper(f.Query)
		if !strings.Contains(cp.Position.Ticker, q) &&
			!strings.Contains(strings.ToUpper(cp.Position.Name), q) {
			return false
		}
	}
	if f.Status != "" && cp.Computed.Status != f.Status {
		return false
	}
	if f.Account != "" && cp.Position.Account != f.Account {
		return false
	}
	switch f.Result {
	case ResultWin:
		if cp.Computed.RealizedPnl == nil || *cp.Computed.RealizedPnl <= 0 {
			return false
		}
	case ResultLoss:
		if cp.Computed.RealizedPnl == nil || *cp.Computed.RealizedPnl >= 0 {
			return false
		}
	}
	return true
}

// ApplyFilter returns the subset of list passing f, preserving order.
func ApplyFilter(list []models.ComputedPosition, f Filter) []models.ComputedPosition {
	out := make([]models.ComputedPosition, 0, len(list))
	for _, cp := range list {
		if f.Match(cp) {
			out = append(out, cp)
		}
	}
	return out
}

// ApplySort returns a sorted copy of list. Records with a null sort value sort
// to the end regardless of direction; strings compare with Japanese collation,
// numbers directly.
func ApplySort(list []models.ComputedPosition, s Sort) []models.ComputedPosition {
	out := make([]models.ComputedPosition, len(list))
	copy(out, list)
	if s.Key == "" {
		return out
	}

	col := collate.New(language.Japanese)
	sort.SliceStable(out, func(i, j int) bool {
		av, aok := sortValue(out[i], s.Key)
		bv, bok := sortValue(out[j], s.Key)
		if !aok {
			return false // nulls last
		}
		if !bok {
			return true
		}
		switch a := av.(type) {
		case string:
			b := bv.(string)
			if s.Ascending {
				return col.CompareString(a, b) < 0
			}
			return col.CompareString(b, a) < 0
		case float64:
			b := bv.(float64)
			if s.Ascending {
				return a < b
			}
			return b < a
		}
		return false
	})
	return out
}

// sortValue resolves a sort key to a comparable value. Derived keys read the
// computed block; everything else reads the stored record. ok is false when
// the value is absent for this position.
func sortValue(cp models.ComputedPosition, key string) (any, bool) {
	switch key {
	case "pnl":
		if cp.Computed.RealizedPnl == nil {
			return nil, false
		}
		return *cp.Computed.RealizedPnl, true
	case "pnl_pct":
		if cp.Computed.RealizedPnlPct == nil {
			return nil, false
		}
		return *cp.Computed.RealizedPnlPct, true
	case "status":
		return cp.Computed.Status, true
	case "ticker":
		return cp.Position.Ticker, true
	case "name":
		return cp.Position.Name, true
	case "sector":
		return cp.Position.Sector, true
	case "account":
		return cp.Position.Account, true
	case "entry_date":
		if cp.Position.EntryDate == "" {
			return nil, false
		}
		return cp.Position.EntryDate, true
	case "shares":
		return float64(cp.Position.Shares), true
	case "entry_price":
		return cp.Position.EntryPrice, true
	case "entry_fx":
		return cp.Position.EntryFx, true
	case "commission":
		return cp.Position.Commission, true
	case "total_cost":
		return cp.Computed.TotalCost, true
	case "per":
		if cp.Position.PER == nil {
			return nil, false
		}
		return *cp.Position.PER, true
	case "stop_loss":
		if cp.Position.StopLoss == nil {
			return nil, false
		}
		return *cp.Position.StopLoss, true
	case "take_profit":
		if cp.Position.TakeProfit == nil {
			return nil, false
		}
		return *cp.Position.TakeProfit, true
	}
	return nil, false
}
