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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	applog "gocanvas/internal/log"
	"gocanvas/internal/version"

	// PostgreSQL through database/sql
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultFileName is the SQLite file under the per-user data directory.
	DefaultFileName = "sessions.sqlite"

	// schemaVersion tracks the snapshot schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 1
)

// Config selects the backend.
type Config struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is a file path for sqlite (DefaultPath when empty) or a postgres URL.
	DSN string
	// KeepLast prunes a session to its newest snapshots after every save (0 keeps all).
	KeepLast int
}

// DB is an open snapshot store. It is safe for concurrent use.
type DB struct {
	db       *sql.DB
	driver   string
	keepLast int
	log      *slog.Logger
	tr       trace.Tracer
}

// DefaultPath returns the per-user SQLite location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "gocanvas", DefaultFileName), nil
}

// Open connects to the backend and makes sure the schema exists.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("driver", driver))

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(cfg.DSN)
	case DriverPostgres, "pgx":
		driver = DriverPostgres
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, errors.New("postgres dsn is required")
		}
		db, err = sql.Open("pgx", cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	d := &DB{db: db, driver: driver, keepLast: cfg.KeepLast, log: applog.WithComponent("storage"), tr: otel.Tracer("gocanvas/internal/storage")}
	if driver == DriverSQLite {
		// Ensure WAL mode is active.
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if err := d.ensureSchema(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("snapshot store ready")
	return d, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}
	// Convert to forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// Driver reports the backend in use.
func (d *DB) Driver() string { return d.driver }

// Close releases the connection pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
	}
	if d.driver == DriverPostgres {
		ddl = append(ddl, `CREATE TABLE IF NOT EXISTS snapshots (
			id          BIGSERIAL PRIMARY KEY,
			session_id  TEXT NOT NULL,
			ts          BIGINT NOT NULL,
			blob        BYTEA NOT NULL
		)`)
	} else {
		ddl = append(ddl, `CREATE TABLE IF NOT EXISTS snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL,
			ts          INTEGER NOT NULL,
			blob        BLOB NOT NULL
		)`)
	}
	ddl = append(ddl, `CREATE INDEX IF NOT EXISTS idx_snapshots_session_ts ON snapshots(session_id, ts)`)
	for _, q := range ddl {
		if _, err := d.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := d.db.QueryRowContext(ctx, d.rebind(`SELECT schema FROM version WHERE id=1`)).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := d.db.ExecContext(ctx, d.rebind(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`), schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > schemaVersion:
		d.log.Warn("snapshot schema is newer than this build", slog.Int("schema", cur), slog.Int("supported", schemaVersion))
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := d.db.ExecContext(ctx, d.rebind(`UPDATE version SET app=?, updated_at=? WHERE id=1`), appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the schema recorded in the database.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := d.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// rebind turns ? placeholders into $n for postgres.
func (d *DB) rebind(q string) string {
	if d.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
