/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package archive stores replay results in SQLite (local file) or
// PostgreSQL (shared database) so runs can be listed and compared later.
package archive

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

	applog "sidebarlayout/internal/log"
	"sidebarlayout/internal/replay"
	"sidebarlayout/internal/version"

	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// FileName is the default archive file next to the config file.
	FileName = "replays.sqlite"

	schemaVersion = 1
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("archive: run not found")

type dialect struct {
	driver   string
	idColumn string
	dollar   bool
}

var (
	sqliteDialect   = dialect{driver: "sqlite", idColumn: "INTEGER PRIMARY KEY"}
	postgresDialect = dialect{driver: "pgx", idColumn: "BIGSERIAL PRIMARY KEY", dollar: true}
)

// bind rewrites ? placeholders into $n for PostgreSQL.
func (d dialect) bind(q string) string {
	if !d.dollar {
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

// Archive is an open replay archive.
type Archive struct {
	db *sql.DB
	d  dialect
}

// Run is one archived replay.
type Run struct {
	ID        int64
	Script    string
	App       string
	CreatedAt time.Time
	Steps     int
	Failures  int
	Final     string
}

// DefaultPath returns the archive file that sits next to configPath.
func DefaultPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), FileName)
}

// IsPostgres reports whether target is a PostgreSQL connection URL.
func IsPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// Open connects to target, a SQLite file path or a postgres:// URL, and
// brings the schema up to date.
func Open(ctx context.Context, target string) (*Archive, error) {
	l := applog.WithOperation(applog.WithComponent("archive"), "open")
	if strings.TrimSpace(target) == "" {
		return nil, errors.New("archive target is required")
	}
	var (
		a   = &Archive{}
		dsn string
	)
	if IsPostgres(target) {
		a.d = postgresDialect
		dsn = target
	} else {
		a.d = sqliteDialect
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(target))
		l = l.With(slog.String("path", target))
	}
	db, err := sql.Open(a.d.driver, dsn)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open %s: %w", a.d.driver, err)
	}
	a.db = db
	if a.d == sqliteDialect {
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		l.Error("ping failed", slog.Any("err", err))
		return nil, fmt.Errorf("ping %s: %w", a.d.driver, err)
	}
	if err := a.migrate(ctx); err != nil {
		_ = db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("archive ready", slog.String("driver", a.d.driver))
	return a, nil
}

// Close releases the connection.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Archive) migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id         INTEGER PRIMARY KEY CHECK(id=1),
			schema     INTEGER NOT NULL,
			app        TEXT,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id         ` + a.d.idColumn + `,
			script     TEXT    NOT NULL,
			app        TEXT    NOT NULL,
			created_at TEXT    NOT NULL,
			steps      INTEGER NOT NULL,
			failures   INTEGER NOT NULL,
			final      TEXT    NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transitions (
			run_id   BIGINT  NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq      INTEGER NOT NULL,
			step     INTEGER NOT NULL,
			kind     TEXT    NOT NULL,
			side     TEXT    NOT NULL,
			cause    TEXT    NOT NULL,
			offset_x REAL    NOT NULL,
			opacity  REAL    NOT NULL,
			PRIMARY KEY(run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_script ON runs(script)`,
	}
	for _, q := range ddl {
		if _, err := a.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := a.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = a.db.ExecContext(ctx, a.d.bind(`INSERT INTO version (id, schema, app, updated_at) VALUES(1, ?, ?, ?)`),
			schemaVersion, version.String(), now)
		if err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > schemaVersion:
		return fmt.Errorf("archive schema %d is newer than supported %d", cur, schemaVersion)
	default:
		if _, err := a.db.ExecContext(ctx, a.d.bind(`UPDATE version SET app=?, updated_at=? WHERE id=1`), version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// Save stores res and its transitions in one transaction and returns the run id.
func (a *Archive) Save(ctx context.Context, res *replay.Result) (int64, error) {
	if res == nil {
		return 0, errors.New("nil result")
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, a.d.bind(`INSERT INTO runs (script, app, created_at, steps, failures, final)
		VALUES(?, ?, ?, ?, ?, ?) RETURNING id`),
		res.Script, version.String(), time.Now().UTC().Format(time.RFC3339Nano),
		len(res.Steps), res.FailureCount(), res.Final).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, a.d.bind(`INSERT INTO transitions (run_id, seq, step, kind, side, cause, offset_x, opacity)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("prepare transitions: %w", err)
	}
	defer stmt.Close()
	for i, t := range res.Transitions {
		if _, err := stmt.ExecContext(ctx, id, i, t.Step, t.Kind, t.Side, t.Cause, float64(t.Offset), float64(t.Opacity)); err != nil {
			return 0, fmt.Errorf("insert transition %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	applog.WithComponent("archive").Debug("run saved", slog.Int64("id", id), slog.String("script", res.Script))
	return id, nil
}

// Runs lists the most recent runs first. A limit of zero or less lists all;
// a non-empty script filters by script name.
func (a *Archive) Runs(ctx context.Context, script string, limit int) ([]Run, error) {
	q := `SELECT id, script, app, created_at, steps, failures, final FROM runs`
	var args []any
	if script != "" {
		q += ` WHERE script = ?`
		args = append(args, script)
	}
	q += ` ORDER BY id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := a.db.QueryContext(ctx, a.d.bind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var (
			r  Run
			at string
		)
		if err := rows.Scan(&r.ID, &r.Script, &r.App, &at, &r.Steps, &r.Failures, &r.Final); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Transitions returns the transitions recorded for run id in order.
func (a *Archive) Transitions(ctx context.Context, id int64) ([]replay.TransitionRecord, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, a.d.bind(`SELECT COUNT(*) FROM runs WHERE id = ?`), id).Scan(&n); err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	rows, err := a.db.QueryContext(ctx, a.d.bind(`SELECT step, kind, side, cause, offset_x, opacity
		FROM transitions WHERE run_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()
	out := []replay.TransitionRecord{}
	for rows.Next() {
		var (
			t               replay.TransitionRecord
			offset, opacity float64
		)
		if err := rows.Scan(&t.Step, &t.Kind, &t.Side, &t.Cause, &offset, &opacity); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Offset, t.Opacity = float32(offset), float32(opacity)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (a *Archive) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	sub := `SELECT id FROM runs ORDER BY id DESC LIMIT ?`
	if _, err := tx.ExecContext(ctx, a.d.bind(`DELETE FROM transitions WHERE run_id NOT IN (`+sub+`)`), keep); err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	res, err := tx.ExecContext(ctx, a.d.bind(`DELETE FROM runs WHERE id NOT IN (`+sub+`)`), keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}
