// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"fwstore/internal/config"
	"fwstore/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SQLiteConfig returns a database config for a private in-memory sqlite database.
func SQLiteConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
	}
}

// NewDB opens and migrates a fresh in-memory database that is closed when t ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(context.Background(), SQLiteConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
