// Package identity persists the durable user id and the per-turn chat
// transcript across sessions.
package identity

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Turn is one completed exchange: the transcribed question and the spoken
// answer's text form.
type Turn struct {
	ID        int64
	UserID    string
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Store wraps the local SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath resolves XDG_STATE_HOME when available, otherwise
// ~/.local/state.
func DefaultDBPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "foresight", "foresight.sqlite"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "foresight", "foresight.sqlite"), nil
}

// Open opens (creating if needed) the database with WAL and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS identity (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			user_id TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS transcript (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			question   TEXT NOT NULL,
			answer     TEXT NOT NULL,
			created_at REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transcript_user ON transcript(user_id, id);
	`)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureUserID returns the persisted user id, minting one on first use.
// Idempotent across restarts.
func (s *Store) EnsureUserID() (string, error) {
	row := s.db.QueryRow(`SELECT user_id FROM identity WHERE id = 1`)

	var userID string
	err := row.Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read user id: %w", err)
	}

	userID = uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO identity (id, user_id) VALUES (1, ?)`, userID); err != nil {
		return "", fmt.Errorf("persist user id: %w", err)
	}
	return userID, nil
}

// AppendTurn records one completed question/answer exchange.
func (s *Store) AppendTurn(userID string, question string, answer string) error {
	_, err := s.db.Exec(
		`INSERT INTO transcript (user_id, question, answer, created_at) VALUES (?, ?, ?, ?)`,
		userID, question, answer, float64(time.Now().UnixMilli())/1000.0,
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// History returns the most recent turns, newest first, bounded by limit.
func (s *Store) History(userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, user_id, question, answer, created_at
		FROM transcript
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdAt float64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Question, &t.Answer, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt = time.UnixMilli(int64(createdAt * 1000))
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ClearHistory drops the local transcript for one user.
func (s *Store) ClearHistory(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM transcript WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}
