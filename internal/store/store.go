// Package store provides SQLite-backed persistence for the narration
// cache, the voice file index, and the decision transcript log.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection shared by every persistent concern.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commentary_cache (
		key TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS voice_cache (
		key TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transcript (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		name TEXT,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// GetCommentary returns a previously cached narration line.
func (db *DB) GetCommentary(key string) (string, bool, error) {
	var text string
	err := db.conn.Get(&text, "SELECT text FROM commentary_cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get commentary: %w", err)
	}
	return text, true, nil
}

// PutCommentary stores a narration line, replacing any previous entry.
func (db *DB) PutCommentary(key, text string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO commentary_cache (key, text, created_at) VALUES (?, ?, ?)",
		key, text, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put commentary: %w", err)
	}
	return nil
}

// ClearCommentary drops every cached narration line.
func (db *DB) ClearCommentary() error {
	_, err := db.conn.Exec("DELETE FROM commentary_cache")
	return err
}

// CommentaryCount returns the number of persisted narration lines.
func (db *DB) CommentaryCount() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM commentary_cache")
	return n, err
}

// GetVoice returns the cached audio filename for a text key.
func (db *DB) GetVoice(key string) (string, bool, error) {
	var name string
	err := db.conn.Get(&name, "SELECT filename FROM voice_cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get voice entry: %w", err)
	}
	return name, true, nil
}

// PutVoice records a rendered audio file for a text key.
func (db *DB) PutVoice(key, filename string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO voice_cache (key, filename, created_at) VALUES (?, ?, ?)",
		key, filename, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put voice entry: %w", err)
	}
	return nil
}

// ClearVoice drops the audio file index.
func (db *DB) ClearVoice() error {
	_, err := db.conn.Exec("DELETE FROM voice_cache")
	return err
}

// TranscriptLog appends decision transcript entries for one session. It
// plugs into the transcript as its persistence sink.
type TranscriptLog struct {
	db        *DB
	sessionID string
}

// Transcript returns the append-only log for a session.
func (db *DB) Transcript(sessionID string) *TranscriptLog {
	return &TranscriptLog{db: db, sessionID: sessionID}
}

// AppendMessage writes one transcript entry.
func (l *TranscriptLog) AppendMessage(role, name, content string) error {
	_, err := l.db.conn.Exec(
		"INSERT INTO transcript (session_id, role, name, content, created_at) VALUES (?, ?, ?, ?, ?)",
		l.sessionID, role, name, content, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("append transcript entry: %w", err)
	}
	return nil
}

// LoggedMessage is one persisted transcript row.
type LoggedMessage struct {
	Role    string `db:"role"`
	Name    string `db:"name"`
	Content string `db:"content"`
}

// SessionMessages returns a session's transcript entries, oldest first.
func (db *DB) SessionMessages(sessionID string) ([]LoggedMessage, error) {
	var out []LoggedMessage
	err := db.conn.Select(&out,
		"SELECT role, COALESCE(name, '') AS name, content FROM transcript WHERE session_id = ? ORDER BY id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session transcript: %w", err)
	}
	return out, nil
}

// TranscriptCount returns the number of entries logged for a session.
func (db *DB) TranscriptCount(sessionID string) (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM transcript WHERE session_id = ?", sessionID)
	return n, err
}
