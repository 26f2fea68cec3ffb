// backend/src/services/fx_service.go
package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/model"
)

const ckFxQuote = "fx_quote_usd_jpy"

type fxServiceImpl struct {
	db          *sql.DB
	apiURL      string
	defaultRate float64
	client      *http.Client
	quoteCache  *cache.Cache
}

func NewFxService(db *sql.DB, apiURL string, defaultRate float64, timeout time.Duration, quoteCache *cache.Cache) FxService {
	return &fxServiceImpl{
		db:          db,
		apiURL:      apiURL,
		defaultRate: defaultRate,
		client:      &http.Client{Timeout: timeout},
		quoteCache:  quoteCache,
	}
}

// CurrentRate returns the user's stored working rate, falling back to the
// configured default when the user record is unavailable.
func (s *fxServiceImpl) CurrentRate(userID int64) (float64, error) {
	user, err := model.GetUserByID(s.db, userID)
	if err != nil {
		logger.L.Warn("Could not load user for FX rate, using default", "userID", userID, "error", err)
		return s.defaultRate, nil
	}
	if user.FxRate <= 0 {
		return s.defaultRate, nil
	}
	return user.FxRate, nil
}

func (s *fxServiceImpl) SetRate(userID int64, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("fx rate must be positive, got %g", rate)
	}
	return model.UpdateUserFxRate(s.db, userID, rate)
}

// Refresh fetches a fresh USD/JPY quote and stores it as the user's working
// rate. A failed fetch is reported with ErrFxFetchFailed but the returned rate
// is always usable (last known or default), so the quote service being down is
// never fatal to the ledger.
func (s *fxServiceImpl) Refresh(userID int64) (float64, error) {
	if cached, found := s.quoteCache.Get(ckFxQuote); found {
		rate := cached.(float64)
		if err := s.SetRate(userID, rate); err != nil {
			return rate, err
		}
		return rate, nil
	}

	rate, err := s.fetchQuote()
	if err != nil {
		fallback, _ := s.CurrentRate(userID)
		logger.L.Warn("FX quote fetch failed, keeping last known rate",
			"userID", userID, "fallbackRate", fallback, "error", err)
		return fallback, errors.Join(ErrFxFetchFailed, err)
	}

	s.quoteCache.Set(ckFxQuote, rate, 1*time.Hour)
	if err := s.SetRate(userID, rate); err != nil {
		return rate, err
	}
	return rate, nil
}

// erAPIResponse is the subset of the quote API payload the ledger reads.
type erAPIResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (s *fxServiceImpl) fetchQuote() (float64, error) {
	resp, err := s.client.Get(s.apiURL)
	if err != nil {
		return 0, fmt.Errorf("requesting fx quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fx quote API returned status %s", resp.Status)
	}

	var payload erAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding fx quote response: %w", err)
	}

	rate, ok := payload.Rates["JPY"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("fx quote response missing a usable JPY rate")
	}
	return rate, nil
}
