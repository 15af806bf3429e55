package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists the device-local session state: a single key holding the
// active conversation id.
type Store interface {
	SetActive(ctx context.Context, id string) error
	GetActive(ctx context.Context) (string, error)
	ClearActive(ctx context.Context) error
	Close() error
}

const activeChatKey = "active_chat"

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
`

const schemaVersion = 1

// SQLiteStore implements Store using SQLite under the XDG data directory.
type SQLiteStore struct {
	db *sql.DB
}

// GetDBPath returns the state database path, honoring XDG_DATA_HOME.
func GetDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "openchat", "state.db"), nil
}

// NewSQLiteStore opens (creating if needed) the local state database.
func NewSQLiteStore() (*SQLiteStore, error) {
	dbPath, err := GetDBPath()
	if err != nil {
		return nil, fmt.Errorf("get db path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// initSchema creates the schema. Fast path: a single SELECT when already
// current.
func initSchema(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version").Scan(&currentVersion)
	if err == nil && currentVersion >= schemaVersion {
		return nil
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create base schema: %w", err)
	}
	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}
	return nil
}

// SetActive remembers the active conversation id.
func (s *SQLiteStore) SetActive(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", activeChatKey, id)
	if err != nil {
		return fmt.Errorf("persist active chat: %w", err)
	}
	return nil
}

// GetActive returns the remembered conversation id, or "" when none is set.
func (s *SQLiteStore) GetActive(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = ?", activeChatKey).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read active chat: %w", err)
	}
	return id, nil
}

// ClearActive forgets the remembered conversation id.
func (s *SQLiteStore) ClearActive(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM metadata WHERE key = ?", activeChatKey)
	if err != nil {
		return fmt.Errorf("clear active chat: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
