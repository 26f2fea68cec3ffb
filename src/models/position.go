package models

import "time"

// Account types. The account determines the commission schedule and whether a
// purchase counts against the annual tax-advantaged quota.
const (
	AccountNisa    = "nisa"    // tax-advantaged, commission-free, quota-tracked
	AccountRakuten = "rakuten" // percentage fee + per-share FX surcharge
	AccountMoomoo  = "moomoo"  // percentage fee with a free tier, no FX surcharge
)

// Position lifecycle statuses. Status is derived from shares vs exits on every
// read; it is never stored.
const (
	StatusOpen    = "open"
	StatusPartial = "partial"
	StatusClosed  = "closed"
)

// Exit is one partial or full disposal of a position. Pnl and PnlPct are
// computed when the exit is recorded and frozen; later FX or rate changes do
// not rewrite history.
type Exit struct {
	Shares   int     `json:"shares"`
	Price    float64 `json:"exit_price"` // USD unit price at disposal
	Fx       float64 `json:"exit_fx"`    // USD/JPY rate captured at disposal
	Date     string  `json:"exit_date"`  // YYYY-MM-DD
	Pnl      float64 `json:"pnl"`        // realized JPY gain/loss for this slice
	PnlPct   float64 `json:"pnl_pct"`    // return % against the slice's cost basis
	Reason   string  `json:"reason,omitempty"`
}

// Position is one entry transaction, possibly partially or fully exited.
// It is persisted as a whole document; edits replace the entire record.
type Position struct {
	ID        int64  `json:"id,omitempty"`
	UserID    int64  `json:"-"`
	Ticker    string `json:"ticker"`
	Name      string `json:"name,omitempty"`
	Sector    string `json:"sector,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Account   string `json:"account"`
	EntryDate string `json:"entry_date"` // YYYY-MM-DD

	Shares     int     `json:"shares"`
	EntryPrice float64 `json:"entry_price"` // USD unit price at entry
	EntryFx    float64 `json:"entry_fx"`    // USD/JPY rate captured at entry
	Commission float64 `json:"commission"`  // JPY, computed once at entry and stored
	TotalCost  float64 `json:"total_cost"`  // JPY cost basis, stored; authoritative for exit allocation

	// Optional descriptive fields, no computational meaning beyond presentation.
	PER          *float64 `json:"per,omitempty"`
	PERFwd       *float64 `json:"per_fwd,omitempty"`
	StopLoss     *float64 `json:"stop_loss,omitempty"`
	TakeProfit   *float64 `json:"take_profit,omitempty"`
	DeliveryDate string   `json:"delivery_date,omitempty"`
	EntryReason  string   `json:"entry_reason,omitempty"`
	Note         string   `json:"note,omitempty"`

	// Exits in recording order. The order is chronological by convention and
	// is never re-sorted; shares are consumed from the whole position
	// proportionally, not lot by lot.
	Exits []Exit `json:"exits"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Computed holds the values derived from a position's stored fields. Nil
// pointers mean "not applicable yet" (e.g. no realized P&L before any exit),
// which is distinct from zero.
type Computed struct {
	EntryJPY        float64  `json:"entry_jpy"`       // per-share JPY cost, unrounded
	TotalCost       float64  `json:"total_cost_jpy"`  // rounded JPY cost basis incl. commission
	ExitedShares    int      `json:"exited_shares"`
	RemainingShares int      `json:"remaining_shares"`
	RealizedPnl     *float64 `json:"realized_pnl"`
	RealizedPnlPct  *float64 `json:"realized_pnl_pct"`
	Status          string   `json:"status"`
}

// ComputedPosition pairs a stored position with its derived values for API
// responses and export.
type ComputedPosition struct {
	Position Position `json:"position"`
	Computed Computed `json:"computed"`
}
