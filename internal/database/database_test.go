package database_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"fwstore/internal/database"
	"fwstore/internal/models"
	"fwstore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewLogger_IgnoresRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := database.NewLogger(log.New(&buf, "", 0))
	begin := time.Now()
	sql := func() (string, int64) { return "SELECT * FROM users WHERE id = 1", 0 }

	l.Trace(context.Background(), begin, sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), begin, sql, errors.New("disk I/O error"))
	assert.Contains(t, buf.String(), "disk I/O error")
}

func TestNewLogger_ReportsSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	l := database.NewLogger(log.New(&buf, "", 0))

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Contains(t, buf.String(), "SLOW SQL")
}

func TestOpen_MissingRowIsNotFound(t *testing.T) {
	db := testutil.NewDB(t)

	var user models.User
	err := db.First(&user, 42).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDialector_UnknownDriver(t *testing.T) {
	cfg := testutil.SQLiteConfig()
	cfg.Driver = "oracle"
	_, err := database.Dialector(cfg)
	assert.ErrorContains(t, err, "unsupported database driver")
}
