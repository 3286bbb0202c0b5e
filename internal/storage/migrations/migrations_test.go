package migrations

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLFiles_Embedded(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_bars.sql", "002_engine_runs.sql"}, pg)

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_feature_values.sql", "002_feature_views.sql"}, ch)
}

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x Int32);

  -- indented comment
CREATE TABLE b
(
    y String
);
`
	stmts := splitStatements(input)

	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int32)", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE b")
	assert.Contains(t, stmts[1], "y String")
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'a'; SELECT 'it''s'"))
	assert.ErrorIs(t, validateNoSemicolonInStrings("SELECT 'a;b'"), errSemicolonInString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/market")
	require.NoError(t, err)
	assert.Equal(t, "market", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

type recordingExec struct {
	stmts  []string
	failOn int
}

func (r *recordingExec) Exec(_ context.Context, query string, _ ...any) error {
	r.stmts = append(r.stmts, query)
	if r.failOn > 0 && len(r.stmts) == r.failOn {
		return errors.New("boom")
	}
	return nil
}

func TestApplyClickhouse(t *testing.T) {
	rec := &recordingExec{}

	applied, err := applyClickhouse(context.Background(), rec, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, []string{"001_feature_values.sql", "002_feature_views.sql"}, applied)
	require.Len(t, rec.stmts, 2)
	assert.Contains(t, rec.stmts[0], "CREATE TABLE IF NOT EXISTS feature_values")
	assert.Contains(t, rec.stmts[1], "CREATE VIEW IF NOT EXISTS feature_event_counts")
}

func TestApplyClickhouse_StopsOnError(t *testing.T) {
	rec := &recordingExec{failOn: 2}

	applied, err := applyClickhouse(context.Background(), rec, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_feature_views.sql")
	assert.Equal(t, []string{"001_feature_values.sql"}, applied)
}
