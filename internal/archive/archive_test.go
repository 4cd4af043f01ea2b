/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidebarlayout/internal/replay"
)

func runScript(t *testing.T, name string) *replay.Result {
	t.Helper()
	s, err := replay.Load(filepath.Join("..", "replay", "testdata", name))
	require.NoError(t, err)
	res, err := replay.Run(context.Background(), s)
	require.NoError(t, err)
	return res
}

func exercise(t *testing.T, a *Archive) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok := runScript(t, "scenario_a.yaml")
	bad := runScript(t, "failing.yaml")
	require.NotEmpty(t, ok.Transitions)

	id1, err := a.Save(ctx, ok)
	require.NoError(t, err)
	id2, err := a.Save(ctx, bad)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := a.Runs(ctx, "", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(runs), 2)
	assert.Equal(t, id2, runs[0].ID, "newest first")
	assert.Equal(t, bad.FailureCount(), runs[0].Failures)
	assert.Equal(t, len(ok.Steps), runs[1].Steps)
	assert.Equal(t, ok.Final, runs[1].Final)
	assert.False(t, runs[1].CreatedAt.IsZero())

	only, err := a.Runs(ctx, ok.Script, 1)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, id1, only[0].ID)

	trs, err := a.Transitions(ctx, id1)
	require.NoError(t, err)
	require.Len(t, trs, len(ok.Transitions))
	for i := range trs {
		assert.Equal(t, ok.Transitions[i].Kind, trs[i].Kind)
		assert.Equal(t, ok.Transitions[i].Step, trs[i].Step)
		assert.InDelta(t, ok.Transitions[i].Offset, trs[i].Offset, 1e-3)
	}

	_, err = a.Transitions(ctx, id2+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	a, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer a.Close()

	exercise(t, a)

	n, err := a.Prune(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	runs, err := a.Runs(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteArchive_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	a, err := Open(context.Background(), path)
	require.NoError(t, err)
	_, err = a.Save(context.Background(), runScript(t, "scenario_b.yaml"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer b.Close()
	runs, err := b.Runs(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)

	var nilArchive *Archive
	assert.NoError(t, nilArchive.Close())
}

func TestBindPlaceholders(t *testing.T) {
	assert.Equal(t, "a=? AND b=?", sqliteDialect.bind("a=? AND b=?"))
	assert.Equal(t, "a=$1 AND b=$2", postgresDialect.bind("a=? AND b=?"))
}

func TestDefaultPathAndTargets(t *testing.T) {
	assert.Equal(t, filepath.Join("cfg", FileName), DefaultPath(filepath.Join("cfg", "config.yaml")))
	assert.True(t, IsPostgres("postgres://u@h/db"))
	assert.True(t, IsPostgres("postgresql://u@h/db"))
	assert.False(t, IsPostgres("/tmp/replays.sqlite"))
}

// Runs against a real server when SBL_ARCHIVE_PG_DSN points at a disposable database.
func TestPostgresArchive(t *testing.T) {
	dsn := os.Getenv("SBL_ARCHIVE_PG_DSN")
	if dsn == "" {
		t.Skip("SBL_ARCHIVE_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer a.Close()
	exercise(t, a)
}
