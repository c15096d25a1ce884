// Package journal keeps a history of dispatched cues in SQLite so a
// player can review a session afterwards. Writes happen on their own
// goroutine; the poll loop never waits on disk.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cues (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	at         INTEGER NOT NULL,
	process    TEXT NOT NULL,
	trigger_id INTEGER NOT NULL,
	name       TEXT NOT NULL,
	channel    TEXT NOT NULL,
	text       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS cues_at ON cues(at);
`

// Entry is one dispatched cue.
type Entry struct {
	ID        int64
	At        time.Time
	Process   string
	TriggerID int
	Name      string
	Channel   string
	Text      string
}

// Journal is the cue history store.
type Journal struct {
	db   *sql.DB
	ch   chan Entry
	done chan struct{}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens or creates the journal database and starts the writer.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	j := &Journal{
		db:   db,
		ch:   make(chan Entry, 256),
		done: make(chan struct{}),
	}
	go j.writer()
	return j, nil
}

func (j *Journal) writer() {
	defer close(j.done)
	for e := range j.ch {
		j.db.Exec(
			`INSERT INTO cues (at, process, trigger_id, name, channel, text) VALUES (?, ?, ?, ?, ?, ?)`,
			toMillis(e.At), e.Process, e.TriggerID, e.Name, e.Channel, e.Text,
		)
	}
}

// Record queues an entry. If the writer has fallen behind the entry is
// dropped rather than stalling the caller.
func (j *Journal) Record(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	select {
	case j.ch <- e:
	default:
	}
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, process, trigger_id, name, channel, text FROM cues ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.ID, &at, &e.Process, &e.TriggerID, &e.Name, &e.Channel, &e.Text); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.At = fromMillis(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close drains pending entries, then closes the database.
func (j *Journal) Close() error {
	close(j.ch)
	<-j.done
	return j.db.Close()
}
