// Package dbtest provides fresh instances of every storage backend so that
// tests can run the same scenario over each of them.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nftswap/swapd/internal/core/ports"
	dbbadger "github.com/nftswap/swapd/internal/infrastructure/storage/db/badger"
	"github.com/nftswap/swapd/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/nftswap/swapd/internal/infrastructure/storage/db/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store builds an empty repo manager closed at the end of the test.
type Store struct {
	Name string
	New  func(t testing.TB) ports.RepoManager
}

// Stores returns the inmemory, badger and sql backends.
func Stores() []Store {
	return []Store{
		{"inmemory", func(testing.TB) ports.RepoManager {
			return inmemory.NewRepoManager()
		}},
		{"badger", NewBadgerRepoManager},
		{"sql", NewSqlRepoManager},
	}
}

// NewBadgerRepoManager returns an in-memory badger store.
func NewBadgerRepoManager(t testing.TB) ports.RepoManager {
	t.Helper()

	repo, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

// NewSqlRepoManager returns the gorm store on top of an in-memory sqlite db.
func NewSqlRepoManager(t testing.TB) ports.RepoManager {
	t.Helper()

	repo, err := postgresdb.NewRepoManager(NewSqliteDb(t))
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

// NewSqliteDb returns an isolated in-memory db. A single connection makes
// transactions run one after the other, like row locks do on postgres.
func NewSqliteDb(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}
