// SPDX-License-Identifier: MIT

// Package store provides SQLite persistence for timers and recordings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// ErrNotFound is returned when a row lookup by id matches nothing.
var ErrNotFound = errors.New("store: not found")

// Timer is a persisted intent to record a channel during a time window.
// Times are milliseconds since the Unix epoch.
type Timer struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	ChannelNum string `json:"channel_num"`
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time"`
	CreatedAt  int64  `json:"created_at"`
}

// Recording is persisted metadata for a capture. EndTime stays 0 while the
// capture is in progress.
type Recording struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ChannelName string `json:"channel_name"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
	FilePath    string `json:"file_path"`
	Status      string `json:"status"`
}

// Recording status values.
const (
	StatusRecording = "recording"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Program is one program-guide row.
type Program struct {
	ID         int64  `json:"id"`
	ChannelNum string `json:"channel_num"`
	Title      string `json:"title"`
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time"`
}

// Store wraps the SQLite database. SQLite serializes its own writes; callers
// may issue overlapping CRUD calls without external locking.
type Store struct {
	db *sql.DB
}

// Open initializes the store at dbPath and runs migrations. WAL mode and a
// busy timeout keep concurrent connection workers from tripping over the
// scheduler's writes.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS timers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL DEFAULT 'once',
		title TEXT NOT NULL DEFAULT '',
		channel_num TEXT NOT NULL DEFAULT '',
		start_time INTEGER NOT NULL DEFAULT 0,
		end_time INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS recordings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT '',
		channel_name TEXT NOT NULL DEFAULT '',
		start_time INTEGER NOT NULL DEFAULT 0,
		end_time INTEGER NOT NULL DEFAULT 0,
		file_path TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'recording'
	);

	CREATE TABLE IF NOT EXISTS programs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_num TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		start_time INTEGER NOT NULL DEFAULT 0,
		end_time INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_timers_window ON timers(start_time, end_time);
	CREATE INDEX IF NOT EXISTS idx_programs_window ON programs(start_time, end_time);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AddTimer inserts a timer and returns its id.
func (s *Store) AddTimer(ctx context.Context, t Timer) (int64, error) {
	if t.Type == "" {
		t.Type = "once"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO timers (type, title, channel_num, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Type, t.Title, t.ChannelNum, t.StartTime, t.EndTime, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert timer: %w", err)
	}
	return res.LastInsertId()
}

// Timers returns all timers, newest first.
func (s *Store) Timers(ctx context.Context) ([]Timer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, title, channel_num, start_time, end_time, created_at
		 FROM timers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Timer
	for rows.Next() {
		var t Timer
		if err := rows.Scan(&t.ID, &t.Type, &t.Title, &t.ChannelNum, &t.StartTime, &t.EndTime, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PendingTimers returns timers whose [start, end) window contains now (ms).
func (s *Store) PendingTimers(ctx context.Context, now int64) ([]Timer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, title, channel_num, start_time, end_time, created_at
		 FROM timers WHERE start_time <= ? AND end_time > ?`, now, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Timer
	for rows.Next() {
		var t Timer
		if err := rows.Scan(&t.ID, &t.Type, &t.Title, &t.ChannelNum, &t.StartTime, &t.EndTime, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTimer removes a timer row. Deleting an absent id is not an error.
func (s *Store) DeleteTimer(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM timers WHERE id = ?`, id)
	return err
}

// AddRecording inserts a recording row in "recording" status and returns its id.
func (s *Store) AddRecording(ctx context.Context, r Recording) (int64, error) {
	status := r.Status
	if status == "" {
		status = StatusRecording
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recordings (title, channel_name, start_time, end_time, file_path, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Title, r.ChannelName, r.StartTime, r.EndTime, r.FilePath, status)
	if err != nil {
		return 0, fmt.Errorf("insert recording: %w", err)
	}
	return res.LastInsertId()
}

// Recordings returns all recordings, newest first.
func (s *Store) Recordings(ctx context.Context) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, channel_name, start_time, end_time, file_path, status
		 FROM recordings ORDER BY start_time DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Recording
	for rows.Next() {
		var r Recording
		if err := rows.Scan(&r.ID, &r.Title, &r.ChannelName, &r.StartTime, &r.EndTime, &r.FilePath, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordingPath returns the file path of a recording, or ErrNotFound.
func (s *Store) RecordingPath(ctx context.Context, id int64) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT file_path FROM recordings WHERE id = ?`, id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// FinishRecording sets a recording's end time and final status.
func (s *Store) FinishRecording(ctx context.Context, id, endTime int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE recordings SET end_time = ?, status = ? WHERE id = ?`, endTime, status, id)
	return err
}

// DeleteRecording removes a recording row.
func (s *Store) DeleteRecording(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	return err
}

// Guide returns program-guide rows overlapping [start, end).
func (s *Store) Guide(ctx context.Context, start, end int64) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_num, title, start_time, end_time
		 FROM programs WHERE end_time > ? AND start_time < ? ORDER BY start_time`, start, end)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.ChannelNum, &p.Title, &p.StartTime, &p.EndTime); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
