// Package integration runs the ledger against a real PostgreSQL started with
// testcontainers and migrated with the SQL migrations.
package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// One migrated container serves every test of the package; tests truncate
// the ledger tables instead of starting their own.
var (
	containerMu  sync.Mutex
	container    testcontainers.Container
	containerDSN string
)

// TestDB is a connection to the package's ledger database
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	t     *testing.T
}

// NewSharedTestDB opens a fresh connection to the package container,
// starting and migrating it on first use. The connection closes on cleanup.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := sharedDSN(t)
	db, sqlDB := openLedgerDB(t, dsn)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, SqlDB: sqlDB, t: t}
}

func sharedDSN(t *testing.T) string {
	t.Helper()
	containerMu.Lock()
	defer containerMu.Unlock()

	if container != nil {
		return containerDSN
	}

	ctx := context.Background()
	c, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pgledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "container connection string")

	_, sqlDB := openLedgerDB(t, dsn)
	migrateUp(t, sqlDB)
	_ = sqlDB.Close()

	container, containerDSN = c, dsn
	return dsn
}

// CleanTables empties the ledger tables, payments first
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	for _, table := range []string{"payments", "bills", "tenants"} {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error, "truncate %s", table)
	}
}

// RollbackTx runs fn in a transaction that is always rolled back, so fn can
// write rows that break constraints without touching other tests.
func (tdb *TestDB) RollbackTx(fn func(tx *gorm.DB)) {
	tdb.t.Helper()

	tx := tdb.DB.Begin()
	require.NoError(tdb.t, tx.Error, "begin transaction")
	defer tx.Rollback()

	fn(tx)
}

// Savepoint runs stmt under a savepoint and rolls back to it, returning the
// statement's error. A failed statement otherwise aborts the whole tx.
func Savepoint(tx *gorm.DB, name string, stmt func(tx *gorm.DB) error) error {
	if err := tx.SavePoint(name).Error; err != nil {
		return err
	}
	err := stmt(tx)
	if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
		return errors.Join(err, rbErr)
	}
	return err
}

func openLedgerDB(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "connect to postgres")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, sqlDB
}

func migrateUp(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	dir := migrationsDir()
	require.NotEmpty(t, dir, "migrations directory not found")

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err, "apply migrations")
	}
}

// migrationsDir walks up from this file to the module root
func migrationsDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	dir := filepath.Dir(file)
	for i := 0; i < 4; i++ {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// CleanupSharedContainer terminates the package container. Call it from
// TestMain.
func CleanupSharedContainer() {
	containerMu.Lock()
	defer containerMu.Unlock()

	if container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = container.Terminate(ctx)
	container, containerDSN = nil, ""
}
