package database

import (
	"io/fs"
	"testing"

	"github.com/RubachokBoss/student-portal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "portal", SSLMode: "disable",
	})
	assert.Equal(t, "postgres://u:p@db:5432/portal?sslmode=disable", dsn)
}

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"migrations/000001_create_acknowledgments.up.sql",
		"migrations/000001_create_acknowledgments.down.sql",
	}, names)
}
