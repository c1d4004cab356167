/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNoSnapshot is returned when a session has nothing saved.
var ErrNoSnapshot = errors.New("no snapshot")

// language=SQL
const insertSnapshotSQL = `INSERT INTO snapshots(session_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
const selectLatestSnapshotSQL = `SELECT id, session_id, ts, blob FROM snapshots WHERE session_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
const selectLatestAnySQL = `SELECT id, session_id, ts, blob FROM snapshots ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
const listAllSnapshotsSQL = `SELECT id, session_id, ts, blob FROM snapshots WHERE session_id = ? ORDER BY ts DESC, id DESC`

const listSnapshotsSQL = listAllSnapshotsSQL + ` LIMIT ?`

// language=SQL
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE session_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE session_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// language=SQL
const listSessionsSQL = `SELECT session_id, COUNT(*), MAX(ts) FROM snapshots GROUP BY session_id ORDER BY MAX(ts) DESC`

// Record is one saved snapshot.
type Record struct {
	ID        int64
	SessionID string
	TS        time.Time
	Blob      []byte
}

// SessionInfo summarizes the snapshots of one session.
type SessionInfo struct {
	ID        string
	Snapshots int
	LastSaved time.Time
}

// SaveSnapshot stores blob for the session and prunes to KeepLast.
func (d *DB) SaveSnapshot(ctx context.Context, sessionID string, blob []byte) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	ctx, span := d.tr.Start(ctx, "storage.save_snapshot")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID), attribute.Int("snapshot.bytes", len(blob)))

	if _, err := d.db.ExecContext(ctx, d.rebind(insertSnapshotSQL), sessionID, time.Now().UTC().UnixNano(), blob); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if d.keepLast > 0 {
		if n, err := d.Prune(ctx, sessionID, d.keepLast); err != nil {
			d.log.Warn("prune failed", slog.String("session", sessionID), slog.Any("err", err))
		} else if n > 0 {
			d.log.Debug("pruned snapshots", slog.String("session", sessionID), slog.Int64("deleted", n))
		}
	}
	return nil
}

// Latest returns the newest snapshot of the session, or of any session when
// sessionID is empty.
func (d *DB) Latest(ctx context.Context, sessionID string) (Record, error) {
	var row *sql.Row
	if sessionID == "" {
		row = d.db.QueryRowContext(ctx, selectLatestAnySQL)
	} else {
		row = d.db.QueryRowContext(ctx, d.rebind(selectLatestSnapshotSQL), sessionID)
	}
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNoSnapshot
	}
	if err != nil {
		return Record{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return rec, nil
}

// List returns up to limit most recent snapshots of the session, newest
// first. A limit of zero or less returns all of them.
func (d *DB) List(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	query, args := listAllSnapshotsSQL, []any{sessionID}
	if limit > 0 {
		query, args = listSnapshotsSQL, append(args, limit)
	}
	rows, err := d.db.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune keeps at most keepLast snapshots for the session and deletes older ones.
func (d *DB) Prune(ctx context.Context, sessionID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := d.db.ExecContext(ctx, d.rebind(pruneOldSnapshotsSQL), sessionID, sessionID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Sessions lists every session with saved snapshots, most recently saved first.
func (d *DB) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := d.db.QueryContext(ctx, listSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []SessionInfo
	for rows.Next() {
		var (
			s    SessionInfo
			last int64
		)
		if err := rows.Scan(&s.ID, &s.Snapshots, &last); err != nil {
			return nil, err
		}
		s.LastSaved = time.Unix(0, last).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanRecord(s scanner) (Record, error) {
	var (
		r  Record
		ts int64
	)
	if err := s.Scan(&r.ID, &r.SessionID, &ts, &r.Blob); err != nil {
		return Record{}, err
	}
	r.TS = time.Unix(0, ts).UTC()
	return r, nil
}
