// Package audit implements the activity log of spec §4.8: a best-effort,
// Postgres-backed append-only record of room lifecycle events, grounded
// on the teacher's SessionManager (models/session.go) and its
// database/sql + lib/pq query style. Never on the hot path of a stroke.
package audit

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Event is one persisted activity record (spec §3 Activity event record).
type Event struct {
	ID       string    `json:"id"`
	CanvasID int       `json:"canvas_id"`
	Kind     string    `json:"kind"`
	RoomUID  uint8     `json:"room_uid"`
	Detail   string    `json:"detail"`
	At       time.Time `json:"at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS activity_events (
	id         UUID PRIMARY KEY,
	canvas_id  INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	room_uid   SMALLINT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	at         TIMESTAMPTZ NOT NULL
)`

// Log writes activity events to Postgres, swallowing failures (spec
// §4.8, §7): this is an observability path, not part of the delivery
// contract for the paint protocol.
type Log struct {
	db *sql.DB
}

// Open connects to dsn and ensures the activity_events table exists. A
// nil *Log (returned alongside a non-nil error) is safe for Record and
// RecentEvents to no-op against if the caller chooses to ignore the
// error and disable the feature instead of exiting.
func Open(dsn string) (*Log, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db}, nil
}

// Close releases the underlying connection pool.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record inserts one event row, best-effort.
func (l *Log) Record(ctx context.Context, canvasID int, kind string, roomUID uint8, detail string) {
	if l == nil || l.db == nil {
		return
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO activity_events (id, canvas_id, kind, room_uid, detail, at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), canvasID, kind, roomUID, detail, time.Now().UTC(),
	)
	if err != nil {
		log.Printf("audit: record failed: %v", err)
	}
}

// RecentEvents returns up to limit of the most recent events for
// canvasID, newest first, for the admin server's timeline view.
func (l *Log) RecentEvents(ctx context.Context, canvasID, limit int) ([]Event, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, canvas_id, kind, room_uid, detail, at FROM activity_events WHERE canvas_id = $1 ORDER BY at DESC LIMIT $2`,
		canvasID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CanvasID, &e.Kind, &e.RoomUID, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
