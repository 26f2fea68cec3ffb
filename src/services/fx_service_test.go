package services

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/model"
)

const usersSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    fx_rate REAL NOT NULL DEFAULT 153,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func newFxFixture(t *testing.T, apiURL string) (FxService, *sql.DB, int64) {
	t.Helper()
	if logger.L == nil {
		logger.InitLogger("error")
	}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(usersSchema)
	require.NoError(t, err)

	user := &model.User{Username: "trader", Email: "trader@example.com", Password: "x", FxRate: 150}
	require.NoError(t, user.CreateUser(db))

	svc := NewFxService(db, apiURL, 153, 2*time.Second, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
	return svc, db, user.ID
}

func TestCurrentRatePrefersStoredRate(t *testing.T) {
	svc, _, userID := newFxFixture(t, "http://unused.invalid")

	rate, err := svc.CurrentRate(userID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, rate)
}

func TestCurrentRateFallsBackToDefault(t *testing.T) {
	svc, _, _ := newFxFixture(t, "http://unused.invalid")

	// unknown user
	rate, err := svc.CurrentRate(999)
	require.NoError(t, err)
	assert.Equal(t, 153.0, rate)
}

func TestSetRateRejectsNonPositive(t *testing.T) {
	svc, _, userID := newFxFixture(t, "http://unused.invalid")

	assert.Error(t, svc.SetRate(userID, 0))
	assert.Error(t, svc.SetRate(userID, -1))

	require.NoError(t, svc.SetRate(userID, 148.2))
	rate, err := svc.CurrentRate(userID)
	require.NoError(t, err)
	assert.Equal(t, 148.2, rate)
}

func TestRefreshStoresFetchedQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"success","rates":{"JPY":155.37,"EUR":0.92}}`))
	}))
	defer server.Close()

	svc, _, userID := newFxFixture(t, server.URL)

	rate, err := svc.Refresh(userID)
	require.NoError(t, err)
	assert.Equal(t, 155.37, rate)

	stored, err := svc.CurrentRate(userID)
	require.NoError(t, err)
	assert.Equal(t, 155.37, stored)
}

func TestRefreshFailureKeepsLastKnownRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	svc, _, userID := newFxFixture(t, server.URL)

	rate, err := svc.Refresh(userID)
	require.ErrorIs(t, err, ErrFxFetchFailed)
	// the stored rate stays usable
	assert.Equal(t, 150.0, rate)

	stored, err := svc.CurrentRate(userID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, stored)
}

func TestRefreshRejectsPayloadWithoutJPY(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","rates":{"EUR":0.92}}`))
	}))
	defer server.Close()

	svc, _, userID := newFxFixture(t, server.URL)

	rate, err := svc.Refresh(userID)
	require.ErrorIs(t, err, ErrFxFetchFailed)
	assert.Equal(t, 150.0, rate)
}
