// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"
	"time"

	"github.com/username/tradelog/backend/src/models"
)

const (
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// Define common service errors
var (
	ErrPositionNotFound     = errors.New("position not found")
	ErrExitExceedsRemaining = errors.New("exit shares exceed remaining shares")
	ErrExitIndexOutOfRange  = errors.New("exit index out of range")
	ErrParsingFailed        = errors.New("csv parsing failed")
	ErrFxFetchFailed        = errors.New("fx rate fetch failed")
)

// PositionService is the storage-facing surface for position documents. All
// reads and writes are owner-scoped, and every write replaces the whole
// record (last write wins, matching the document-store semantics the ledger
// was built around).
type PositionService interface {
	ListPositions(userID int64) ([]models.Position, error)
	GetPosition(userID, positionID int64) (*models.Position, error)
	CreatePosition(userID int64, p *models.Position) error
	UpdatePosition(userID, positionID int64, p *models.Position) error
	DeletePosition(userID, positionID int64) error

	// AddExit validates the requested share count against the position's
	// current remaining shares, freezes the slice's pnl/pnlPct, and appends
	// it. On validation failure nothing is written.
	AddExit(userID, positionID int64, exit models.Exit) (*models.Position, error)

	// RemoveExit deletes the exit at index. Sibling exits keep their frozen
	// figures; the derived status may move backward.
	RemoveExit(userID, positionID int64, index int) (*models.Position, error)

	// ImportPositions persists candidate records produced by a parser.
	ImportPositions(userID int64, positions []models.Position) (int, error)

	InvalidateUserCache(userID int64)
}

// FxService supplies the working USD/JPY rate. A failed fetch is never fatal:
// the last known (or user-supplied) rate remains in effect.
type FxService interface {
	CurrentRate(userID int64) (float64, error)
	SetRate(userID int64, rate float64) error
	// Refresh fetches a fresh quote. On failure it returns the current stored
	// rate together with ErrFxFetchFailed so the caller can report the
	// fallback distinguishably.
	Refresh(userID int64) (float64, error)
}

// PositionParser turns a tabular import file into candidate position records
// with best-effort field mapping.
type PositionParser interface {
	Parse(file io.Reader, fxRate float64) ([]models.Position, error)
}
