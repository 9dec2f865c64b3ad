// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

// SQLiteRosterStore implements RosterStore and SessionStore on a local SQLite file.
type SQLiteRosterStore struct {
	db *sql.DB
}

// NewSQLiteRosterStore opens (and if needed creates) the database at path.
func NewSQLiteRosterStore(path string) (*SQLiteRosterStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// A single connection keeps writes serialized on the file.
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init sqlite schema: %w", err)
	}
	return &SQLiteRosterStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteRosterStore) Close() error {
	return s.db.Close()
}

// Check pings the database.
func (s *SQLiteRosterStore) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS members (
	  member_key TEXT PRIMARY KEY,
	  position INTEGER NOT NULL,
	  data TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS attendance (
	  member_key TEXT NOT NULL,
	  seq INTEGER NOT NULL,
	  data TEXT NOT NULL,
	  PRIMARY KEY (member_key, seq)
	);
	CREATE TABLE IF NOT EXISTS known_maps (
	  position INTEGER PRIMARY KEY,
	  name TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sessions (
	  id TEXT PRIMARY KEY,
	  session_date TIMESTAMP,
	  data TEXT NOT NULL,
	  updated_at TIMESTAMP NOT NULL
	);
	`)
	return err
}

// LoadRoster reads members in their stored order, then their logs and the known maps.
func (s *SQLiteRosterStore) LoadRoster(ctx context.Context) (*roster.Roster, error) {
	snap := roster.Snapshot{Log: make(map[string][]roster.AttendanceLogEntry)}
	names := make(map[string]string)

	rows, err := s.db.QueryContext(ctx, `SELECT member_key, data FROM members ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		var m roster.Member
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal member %s: %w", key, err)
		}
		names[key] = m.Name
		snap.Members = append(snap.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logRows, err := s.db.QueryContext(ctx, `SELECT member_key, data FROM attendance ORDER BY member_key ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer logRows.Close()
	for logRows.Next() {
		var key, data string
		if err := logRows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		name, ok := names[key]
		if !ok {
			continue
		}
		var entry roster.AttendanceLogEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attendance for %s: %w", key, err)
		}
		snap.Log[name] = append(snap.Log[name], entry)
	}
	if err := logRows.Err(); err != nil {
		return nil, err
	}

	mapRows, err := s.db.QueryContext(ctx, `SELECT name FROM known_maps ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query known maps: %w", err)
	}
	defer mapRows.Close()
	for mapRows.Next() {
		var name string
		if err := mapRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan known map: %w", err)
		}
		snap.KnownMaps = append(snap.KnownMaps, name)
	}
	if err := mapRows.Err(); err != nil {
		return nil, err
	}

	return roster.FromSnapshot(snap)
}

// SaveRoster replaces the stored roster in one transaction.
func (s *SQLiteRosterStore) SaveRoster(ctx context.Context, reg *roster.Roster) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"members", "attendance", "known_maps"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	snap := reg.Snapshot()
	for i, m := range snap.Members {
		data, mErr := json.Marshal(m)
		if mErr != nil {
			return fmt.Errorf("failed to marshal member %s: %w", m.Name, mErr)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO members (member_key, position, data) VALUES (?, ?, ?)`,
			m.Key(), i, string(data)); err != nil {
			return fmt.Errorf("failed to insert member %s: %w", m.Name, err)
		}
		for seq, entry := range snap.Log[m.Name] {
			data, mErr := json.Marshal(entry)
			if mErr != nil {
				return fmt.Errorf("failed to marshal attendance for %s: %w", m.Name, mErr)
			}
			if _, err = tx.ExecContext(ctx, `INSERT INTO attendance (member_key, seq, data) VALUES (?, ?, ?)`,
				m.Key(), seq, string(data)); err != nil {
				return fmt.Errorf("failed to insert attendance for %s: %w", m.Name, err)
			}
		}
	}
	for i, name := range snap.KnownMaps {
		if _, err = tx.ExecContext(ctx, `INSERT INTO known_maps (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("failed to insert known map %s: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit roster: %w", err)
	}
	logrus.Debugf("saved roster with %d members to sqlite", len(snap.Members))
	return nil
}

// LoadSessions reads all remembered sessions.
func (s *SQLiteRosterStore) LoadSessions(ctx context.Context) ([]roster.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []roster.Session
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		var sess roster.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			logrus.Warnf("skipping unreadable session %s: %v", id, err)
			continue
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSessions(out)
	return out, nil
}

// SaveSessions replaces the stored sessions in one transaction.
func (s *SQLiteRosterStore) SaveSessions(ctx context.Context, sessions []roster.Session) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	now := time.Now().UTC()
	for _, sess := range sessions {
		data, mErr := json.Marshal(sess)
		if mErr != nil {
			return fmt.Errorf("failed to marshal session %s: %w", sess.ID, mErr)
		}
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, session_date, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id)
		DO UPDATE SET session_date = excluded.session_date, data = excluded.data, updated_at = excluded.updated_at
		`, sess.ID, sess.Date, string(data), now); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", sess.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}
