// backend/src/services/position_service.go
package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/models"
	"github.com/username/tradelog/backend/src/processors"
	"github.com/username/tradelog/backend/src/security/validation"
)

const ckPositions = "positions_user_%d"

type positionServiceImpl struct {
	db            *sql.DB
	snapshotCache *cache.Cache
}

func NewPositionService(db *sql.DB, snapshotCache *cache.Cache) PositionService {
	return &positionServiceImpl{db: db, snapshotCache: snapshotCache}
}

func (s *positionServiceImpl) ListPositions(userID int64) ([]models.Position, error) {
	cacheKey := fmt.Sprintf(ckPositions, userID)
	if cached, found := s.snapshotCache.Get(cacheKey); found {
		return cached.([]models.Position), nil
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, ticker, name, sector, strategy, account, entry_date,
		       shares, entry_price, entry_fx, commission, total_cost,
		       per, per_fwd, stop_loss, take_profit, delivery_date,
		       entry_reason, note, exits, created_at, updated_at
		FROM positions
		WHERE user_id = ?
		ORDER BY entry_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying positions for user %d: %w", userID, err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning position for user %d: %w", userID, err)
		}
		positions = append(positions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating positions for user %d: %w", userID, err)
	}

	s.snapshotCache.Set(cacheKey, positions, cache.DefaultExpiration)
	return positions, nil
}

func (s *positionServiceImpl) GetPosition(userID, positionID int64) (*models.Position, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, ticker, name, sector, strategy, account, entry_date,
		       shares, entry_price, entry_fx, commission, total_cost,
		       per, per_fwd, stop_loss, take_profit, delivery_date,
		       entry_reason, note, exits, created_at, updated_at
		FROM positions
		WHERE id = ? AND user_id = ?`, positionID, userID)

	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *positionServiceImpl) CreatePosition(userID int64, p *models.Position) error {
	normalizePosition(p)
	if err := validation.ValidatePositionEntry(p); err != nil {
		return err
	}
	priceEntry(p)
	return s.insertPosition(userID, p)
}

func (s *positionServiceImpl) insertPosition(userID int64, p *models.Position) error {
	now := time.Now()
	p.UserID = userID
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Exits == nil {
		p.Exits = []models.Exit{}
	}

	exitsJSON, err := json.Marshal(p.Exits)
	if err != nil {
		return fmt.Errorf("encoding exits: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO positions (user_id, ticker, name, sector, strategy, account, entry_date,
		                       shares, entry_price, entry_fx, commission, total_cost,
		                       per, per_fwd, stop_loss, take_profit, delivery_date,
		                       entry_reason, note, exits, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, p.Ticker, p.Name, p.Sector, p.Strategy, p.Account, p.EntryDate,
		p.Shares, p.EntryPrice, p.EntryFx, p.Commission, p.TotalCost,
		nullableFloat(p.PER), nullableFloat(p.PERFwd), nullableFloat(p.StopLoss), nullableFloat(p.TakeProfit),
		nullableString(p.DeliveryDate), p.EntryReason, p.Note, string(exitsJSON), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting position: %w", err)
	}
	p.ID, _ = res.LastInsertId()

	s.InvalidateUserCache(userID)
	return nil
}

func (s *positionServiceImpl) UpdatePosition(userID, positionID int64, p *models.Position) error {
	existing, err := s.GetPosition(userID, positionID)
	if err != nil {
		return err
	}

	normalizePosition(p)
	if err := validation.ValidatePositionEntry(p); err != nil {
		return err
	}
	// Entry edits re-invoke the commission model explicitly; the stored exits
	// and their frozen figures are preserved as-is.
	priceEntry(p)
	p.Exits = existing.Exits
	p.ID = positionID
	p.UserID = userID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()

	return s.replacePosition(userID, positionID, p)
}

func (s *positionServiceImpl) DeletePosition(userID, positionID int64) error {
	res, err := s.db.Exec("DELETE FROM positions WHERE id = ? AND user_id = ?", positionID, userID)
	if err != nil {
		return fmt.Errorf("deleting position %d: %w", positionID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPositionNotFound
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *positionServiceImpl) AddExit(userID, positionID int64, exit models.Exit) (*models.Position, error) {
	p, err := s.GetPosition(userID, positionID)
	if err != nil {
		return nil, err
	}

	exit.Reason = validation.SanitizeText(strings.TrimSpace(exit.Reason))
	if err := validation.ValidateExit(&exit); err != nil {
		return nil, err
	}

	// The bound is checked against the remaining shares derived from the
	// exits currently stored, not from any client-supplied figure.
	computed := processors.Compute(*p)
	if exit.Shares > computed.RemainingShares {
		return nil, fmt.Errorf("%w: requested %d, remaining %d",
			ErrExitExceedsRemaining, exit.Shares, computed.RemainingShares)
	}

	exit.Pnl, exit.PnlPct = processors.PriceExit(*p, exit.Shares, exit.Price, exit.Fx)
	p.Exits = append(p.Exits, exit)
	p.UpdatedAt = time.Now()

	if err := s.replacePosition(userID, positionID, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *positionServiceImpl) RemoveExit(userID, positionID int64, index int) (*models.Position, error) {
	p, err := s.GetPosition(userID, positionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.Exits) {
		return nil, fmt.Errorf("%w: index %d, exits %d", ErrExitIndexOutOfRange, index, len(p.Exits))
	}

	// Pure structural edit: sibling exits keep their frozen figures.
	p.Exits = append(p.Exits[:index], p.Exits[index+1:]...)
	p.UpdatedAt = time.Now()

	if err := s.replacePosition(userID, positionID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ImportPositions persists candidate records from a parser. Import is
// best-effort: rows keep whatever cost basis the file supplied (the stored
// value stays authoritative for exit math), absent fields stay zero or empty,
// and only a missing ticker disqualifies a row.
func (s *positionServiceImpl) ImportPositions(userID int64, positions []models.Position) (int, error) {
	imported := 0
	for i := range positions {
		p := positions[i]
		normalizePosition(&p)
		if p.Ticker == "" {
			continue
		}
		if err := s.insertPosition(userID, &p); err != nil {
			logger.L.Warn("Skipping import row", "userID", userID, "ticker", p.Ticker, "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}

// replacePosition writes the whole document back, last write wins.
func (s *positionServiceImpl) replacePosition(userID, positionID int64, p *models.Position) error {
	exitsJSON, err := json.Marshal(p.Exits)
	if err != nil {
		return fmt.Errorf("encoding exits: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE positions
		SET ticker = ?, name = ?, sector = ?, strategy = ?, account = ?, entry_date = ?,
		    shares = ?, entry_price = ?, entry_fx = ?, commission = ?, total_cost = ?,
		    per = ?, per_fwd = ?, stop_loss = ?, take_profit = ?, delivery_date = ?,
		    entry_reason = ?, note = ?, exits = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		p.Ticker, p.Name, p.Sector, p.Strategy, p.Account, p.EntryDate,
		p.Shares, p.EntryPrice, p.EntryFx, p.Commission, p.TotalCost,
		nullableFloat(p.PER), nullableFloat(p.PERFwd), nullableFloat(p.StopLoss), nullableFloat(p.TakeProfit),
		nullableString(p.DeliveryDate), p.EntryReason, p.Note, string(exitsJSON), p.UpdatedAt,
		positionID, userID)
	if err != nil {
		return fmt.Errorf("updating position %d: %w", positionID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPositionNotFound
	}

	s.InvalidateUserCache(userID)
	return nil
}

func (s *positionServiceImpl) InvalidateUserCache(userID int64) {
	s.snapshotCache.Delete(fmt.Sprintf(ckPositions, userID))
}

// normalizePosition trims and sanitizes user-supplied text fields and
// uppercases the ticker before validation.
func normalizePosition(p *models.Position) {
	p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
	p.Name = validation.SanitizeText(strings.TrimSpace(p.Name))
	p.Sector = validation.SanitizeText(strings.TrimSpace(p.Sector))
	p.Strategy = validation.SanitizeText(strings.TrimSpace(p.Strategy))
	p.EntryReason = validation.SanitizeText(strings.TrimSpace(p.EntryReason))
	p.Note = validation.SanitizeText(strings.TrimSpace(p.Note))
	if p.Account == "" {
		p.Account = models.AccountNisa
	}
}

// priceEntry computes the commission and the rounded cost basis for the entry
// and stores both on the record.
func priceEntry(p *models.Position) {
	p.Commission = processors.CalculateCommission(p.Account, p.EntryPrice, p.Shares, p.EntryFx)
	p.TotalCost = processors.EntryCost(p.Shares, p.EntryPrice, p.EntryFx, p.Commission)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	var per, perFwd, stopLoss, takeProfit sql.NullFloat64
	var deliveryDate sql.NullString
	var exitsJSON string

	err := row.Scan(&p.ID, &p.UserID, &p.Ticker, &p.Name, &p.Sector, &p.Strategy,
		&p.Account, &p.EntryDate, &p.Shares, &p.EntryPrice, &p.EntryFx,
		&p.Commission, &p.TotalCost, &per, &perFwd, &stopLoss, &takeProfit,
		&deliveryDate, &p.EntryReason, &p.Note, &exitsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if per.Valid {
		p.PER = &per.Float64
	}
	if perFwd.Valid {
		p.PERFwd = &perFwd.Float64
	}
	if stopLoss.Valid {
		p.StopLoss = &stopLoss.Float64
	}
	if takeProfit.Valid {
		p.TakeProfit = &takeProfit.Float64
	}
	if deliveryDate.Valid {
		p.DeliveryDate = deliveryDate.String
	}

	if err := json.Unmarshal([]byte(exitsJSON), &p.Exits); err != nil {
		logger.L.Warn("Corrupt exits JSON on position, treating as empty", "positionID", p.ID, "error", err)
		p.Exits = []models.Exit{}
	}
	if p.Exits == nil {
		p.Exits = []models.Exit{}
	}
	return &p, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
