// Package offline queues workout log entries on disk so they can be
// composed without connectivity and synced to the server later.
package offline

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry kinds the sync client knows how to deliver.
const (
	KindSession = "session"
	KindPost    = "post"
	KindCheckin = "checkin"
)

// Entry is one queued log entry.
type Entry struct {
	ID        int64
	Kind      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// QueueDB stores pending entries in a local SQLite database. Entries are
// deduplicated by payload hash so re-running a command is harmless.
type QueueDB struct {
	db *sql.DB
}

// Open opens (or creates) the queue database at dir/queue.db.
func Open(dir string) (*QueueDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating queue dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening queue db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS pending_entries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		hash       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating queue table: %w", err)
	}

	return &QueueDB{db: db}, nil
}

// Enqueue adds an entry. Returns false when an identical entry is already
// queued.
func (q *QueueDB) Enqueue(kind string, payload any) (bool, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("encoding payload: %w", err)
	}
	sum := sha256.Sum256(append([]byte(kind+":"), data...))
	hash := hex.EncodeToString(sum[:])

	res, err := q.db.Exec(
		`INSERT OR IGNORE INTO pending_entries (kind, payload, hash) VALUES (?, ?, ?)`,
		kind, string(data), hash)
	if err != nil {
		return false, fmt.Errorf("queueing entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Pending returns all queued entries, oldest first.
func (q *QueueDB) Pending() ([]Entry, error) {
	rows, err := q.db.Query(
		`SELECT id, kind, payload, created_at FROM pending_entries ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing pending entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove deletes a delivered entry.
func (q *QueueDB) Remove(id int64) error {
	_, err := q.db.Exec(`DELETE FROM pending_entries WHERE id = ?`, id)
	return err
}

// Close closes the queue database.
func (q *QueueDB) Close() error {
	return q.db.Close()
}
