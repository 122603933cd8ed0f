// Package history persists an audit trail of mutating operations issued
// through the CLI. It records what was asked of which host, not API state:
// the client library itself stays stateless.
package history

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// retention is how long entries are kept before Prune discards them.
const retention = 90 * 24 * time.Hour

// Entry is one recorded operation.
type Entry struct {
	ID      int64
	Time    time.Time
	Host    string
	Node    string
	Action  string // create, start, shutdown, delete, upload
	Target  string // VM name or content filename
	VMID    int    // zero when the action has no vmid
	Outcome string // "ok" or the error text
}

// Log is a SQLite-backed operation log.
type Log struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// DefaultPath returns the database path next to the executable, falling back
// to the current directory when running via go run.
func DefaultPath() string {
	exePath, err := os.Executable()
	if err != nil {
		exePath = "."
	}
	return defaultPathFrom(exePath)
}

// defaultPathFrom keeps the db beside the binary, except for throwaway
// go-run builds, which live under the system temp dir and would take the
// db with them.
func defaultPathFrom(exePath string) string {
	dir := filepath.Dir(exePath)
	if strings.HasPrefix(exePath, os.TempDir()) {
		dir = "."
	}
	return filepath.Join(dir, "pvekit_history.db")
}

// Open opens (or creates) the operation log at the given path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	l := &Log{db: db, path: path}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return l, nil
}

func (l *Log) initSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at INTEGER NOT NULL,
			host TEXT NOT NULL,
			node TEXT NOT NULL,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			vmid INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create operations table: %w", err)
	}

	_, err = l.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_operations_at
		ON operations(at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Record appends an entry. Time defaults to now when unset.
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}

	_, err := l.db.Exec(`
		INSERT INTO operations (at, host, node, action, target, vmid, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, at.Unix(), e.Host, e.Node, e.Action, e.Target, e.VMID, e.Outcome)
	if err != nil {
		return fmt.Errorf("failed to record %s of %q: %w", e.Action, e.Target, err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(`
		SELECT id, at, host, node, action, target, vmid, outcome
		FROM operations
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.ID, &at, &e.Host, &e.Node, &e.Action, &e.Target, &e.VMID, &e.Outcome); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Time = time.Unix(at, 0)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Prune removes entries older than the retention window.
func (l *Log) Prune() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-retention).Unix()
	result, err := l.db.Exec(`DELETE FROM operations WHERE at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected > 0 {
		log.Printf("Pruned %d old history entries", affected)
	}

	return nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
