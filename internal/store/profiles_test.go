package store

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

// captureDB records statements; profile reads come back empty.
type captureDB struct {
	execs   []execCall
	queries []string
}

func (d *captureDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (d *captureDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (d *captureDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	d.queries = append(d.queries, sql)
	return noRow{}
}

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

func TestProfileStore_UpdatePreferencesOnlyTouchesGivenFlags(t *testing.T) {
	tests := []struct {
		name           string
		projectUpdates *bool
		downloads      *bool
		wantSet        []string
		wantUnset      []string
		wantArgs       []any
	}{
		{
			name:           "project updates only",
			projectUpdates: boolPtr(false),
			wantSet:        []string{`"project_updates"`},
			wantUnset:      []string{`"downloads"`},
			wantArgs:       []any{false},
		},
		{
			name:      "downloads only",
			downloads: boolPtr(true),
			wantSet:   []string{`"downloads"`},
			wantUnset: []string{`"project_updates"`},
			wantArgs:  []any{true},
		},
		{
			name:           "both",
			projectUpdates: boolPtr(true),
			downloads:      boolPtr(false),
			wantSet:        []string{`"project_updates"`, `"downloads"`},
			wantArgs:       []any{true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &captureDB{}
			_, err := NewProfileStore(db).UpdatePreferences(context.Background(), "u-1", tt.projectUpdates, tt.downloads)
			require.ErrorIs(t, err, ErrNotFound)

			require.Len(t, db.execs, 1)
			stmt := db.execs[0]
			require.True(t, strings.HasPrefix(stmt.sql, `UPDATE "profiles" SET`), stmt.sql)
			for _, col := range tt.wantSet {
				assert.Contains(t, stmt.sql, col)
			}
			for _, col := range tt.wantUnset {
				assert.NotContains(t, stmt.sql, col)
			}
			// Flags first, then updated_at, then the id.
			require.Len(t, stmt.args, len(tt.wantArgs)+2)
			assert.Equal(t, tt.wantArgs, stmt.args[:len(tt.wantArgs)])
			assert.Equal(t, "u-1", stmt.args[len(stmt.args)-1])
		})
	}
}

func TestProfileStore_UpdatePreferencesWithoutFlagsReads(t *testing.T) {
	db := &captureDB{}
	_, err := NewProfileStore(db).UpdatePreferences(context.Background(), "u-1", nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, db.execs)
	require.Len(t, db.queries, 1)
	assert.True(t, strings.HasPrefix(db.queries[0], "SELECT"))
}
