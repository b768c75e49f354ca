package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := db.Config().ConnString()

	m, err := GetMigrate(connString)
	require.NoError(t, err)
	defer m.Close()

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, fnames)

	for i := 1; i <= len(fnames); i++ {
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := db.Config().ConnString()
	require.NoError(t, MigrateUp(ctx, connString))
	require.NoError(t, MigrateUp(ctx, connString))

	var count int
	err := db.QueryRow(ctx,
		"SELECT count(*) FROM information_schema.tables WHERE table_name IN ('country_number_types', 'regulations')",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, MigrateDown(ctx, connString, 1))
	err = db.QueryRow(ctx,
		"SELECT count(*) FROM information_schema.tables WHERE table_name IN ('country_number_types', 'regulations')",
	).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestToPgx5Scheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{in: "postgres://u:p@h:5432/db", want: "pgx5://u:p@h:5432/db"},
		{in: "postgresql://u:p@h/db?sslmode=disable", want: "pgx5://u:p@h/db?sslmode=disable"},
		{in: "pgx5://h/db", want: "pgx5://h/db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toPgx5Scheme(tt.in))
	}
}
