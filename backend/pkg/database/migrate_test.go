package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Paired(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.Equal(t, []string{
		"000001_monitoring_branches",
		"000002_monitoring_progress_entries",
	}, names)

	for _, n := range names {
		_, err := fs.Stat(migrationsFS, "migrations/"+n+".up.sql")
		assert.NoError(t, err, "缺少 up 迁移: %s", n)
		_, err = fs.Stat(migrationsFS, "migrations/"+n+".down.sql")
		assert.NoError(t, err, "缺少 down 迁移: %s", n)
	}
}

func TestGormLogLevel(t *testing.T) {
	assert.NotEqual(t, gormLogLevel("debug"), gormLogLevel("info"))
	assert.Equal(t, gormLogLevel("info"), gormLogLevel("warn"))
}
