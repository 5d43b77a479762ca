package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/welfaredesk?sslmode=disable", MigrateURL("postgres://u:p@localhost:5432/welfaredesk?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/w", MigrateURL("postgresql://u@db/w"))
	assert.Equal(t, "pgx5://already", MigrateURL("pgx5://already"))
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_audit_logs.up.sql")
	assert.Contains(t, names, "000002_idempotency_keys.up.sql")
}
