package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
	"github.com/Dema10/beerproject/store/storetest"
)

func openForTest(t *testing.T, dialect, env string) *Store {
	t.Helper()
	dsn := os.Getenv(env)
	if dsn == "" {
		t.Skipf("%s not set", env)
	}
	st, err := Open(Options{Dialect: dialect, DSN: dsn, Retries: 3})
	if err != nil {
		t.Skipf("%s not available: %v", dialect, err)
	}
	if err := st.Ping(context.Background()); err != nil {
		t.Skipf("%s not available: %v", dialect, err)
	}
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPostgresContract(t *testing.T) {
	storetest.Run(t, openForTest(t, DialectPostgres, "POSTGRES_DSN"))
}

func TestMySQLContract(t *testing.T) {
	storetest.Run(t, openForTest(t, DialectMySQL, "MYSQL_DSN"))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"postgres deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"mysql lock wait timeout", &mysql.MySQLError{Number: 1205}, true},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062}, false},
		{"business error", store.ErrStockConflict, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open(Options{Dialect: "sqlite", DSN: "file::memory:"})
	assert.ErrorContains(t, err, "unsupported dialect")
}

func TestOrderReadsLockOnlyForUpdate(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=brewery"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	query := func(lock bool) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var order models.Order
			return locking(tx, lock).First(&order, "id = ?", "o1")
		})
	}

	assert.NotContains(t, query(false), "FOR UPDATE")
	assert.Contains(t, query(true), "FOR UPDATE")
}
