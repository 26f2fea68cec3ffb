package model

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrSessionNotFound = errors.New("session not found")

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FxRate    float64   `json:"fx_rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
	INSERT INTO users (username, email, password, fx_rate, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := db.Exec(query, u.Username, u.Email, u.Password, u.FxRate, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	row := db.QueryRow(`
	SELECT id, username, email, password, fx_rate, created_at, updated_at
	FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	row := db.QueryRow(`
	SELECT id, username, email, password, fx_rate, created_at, updated_at
	FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		&user.FxRate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserFxRate stores the user's current USD/JPY rate. The rate is a
// working default for new entries and exits; rates already captured on records
// are never touched.
func UpdateUserFxRate(db *sql.DB, userID int64, rate float64) error {
	_, err := db.Exec("UPDATE users SET fx_rate = ?, updated_at = ? WHERE id = ?",
		rate, time.Now(), userID)
	return err
}

type Session struct {
	ID               int64
	UserID           int64
	Token            string
	RefreshToken     string
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
	CreatedAt        time.Time
}

func CreateSession(db *sql.DB, s *Session) error {
	s.CreatedAt = time.Now()
	res, err := db.Exec(`
	INSERT INTO sessions (user_id, token, refresh_token, expires_at, refresh_expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		s.UserID, s.Token, s.RefreshToken, s.ExpiresAt, s.RefreshExpiresAt, s.CreatedAt)
	if err != nil {
		return err
	}
	s.ID, _ = res.LastInsertId()
	return nil
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(`
	SELECT id, user_id, token, refresh_token, expires_at, refresh_expires_at, created_at
	FROM sessions WHERE token = ?`, token)
	return scanSession(row)
}

func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	row := db.QueryRow(`
	SELECT id, user_id, token, refresh_token, expires_at, refresh_expires_at, created_at
	FROM sessions WHERE refresh_token = ?`, refreshToken)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken,
		&s.ExpiresAt, &s.RefreshExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionTokens rotates both tokens on refresh.
func UpdateSessionTokens(db *sql.DB, sessionID int64, token, refreshToken string, expiresAt, refreshExpiresAt time.Time) error {
	_, err := db.Exec(`
	UPDATE sessions SET token = ?, refresh_token = ?, expires_at = ?, refresh_expires_at = ?
	WHERE id = ?`, token, refreshToken, expiresAt, refreshExpiresAt, sessionID)
	return err
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions clears sessions whose refresh window has passed.
func DeleteExpiredSessions(db *sql.DB) error {
	_, err := db.Exec("DELETE FROM sessions WHERE refresh_expires_at < ?", time.Now())
	return err
}
