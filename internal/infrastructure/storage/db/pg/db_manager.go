package postgresdb

import (
	"context"
	"fmt"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type txKey struct{}

type repoManager struct {
	db *gorm.DB

	tradeRepository   domain.TradeRepository
	historyRepository domain.TradeHistoryRepository
	messageRepository domain.TradeMessageRepository
	userRepository    domain.UserRepository
}

// NewService connects to the postgres db at the given data source, creates
// or updates the tables and returns the repo manager.
func NewService(dataSource string) (ports.RepoManager, error) {
	db, err := gorm.Open(postgres.Open(dataSource), newConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewRepoManager(db)
}

// NewRepoManager migrates the given db and returns the repo manager using it.
// Any gorm dialector works, the tests use sqlite.
func NewRepoManager(db *gorm.DB) (ports.RepoManager, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	rm := &repoManager{db: db}
	rm.tradeRepository = NewTradeRepositoryImpl(rm)
	rm.historyRepository = NewHistoryRepositoryImpl(rm)
	rm.messageRepository = NewMessageRepositoryImpl(rm)
	rm.userRepository = NewUserRepositoryImpl(rm)
	return rm, nil
}

// AutoMigrate creates or updates the tables of all the stored models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{}, &tradeModel{}, &tradeItemModel{},
		&historyModel{}, &messageModel{},
	)
}

func (rm *repoManager) TradeRepository() domain.TradeRepository {
	return rm.tradeRepository
}

func (rm *repoManager) HistoryRepository() domain.TradeHistoryRepository {
	return rm.historyRepository
}

func (rm *repoManager) MessageRepository() domain.TradeMessageRepository {
	return rm.messageRepository
}

func (rm *repoManager) UserRepository() domain.UserRepository {
	return rm.userRepository
}

// RunTransaction runs the handler within a sql transaction. Rows updated
// within the handler are locked until the transaction ends, so concurrent
// handlers touching the same trade run one after the other.
func (rm *repoManager) RunTransaction(
	ctx context.Context,
	_ bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return handler(ctx)
	}

	var res interface{}
	if err := rm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := handler(context.WithValue(ctx, txKey{}, tx))
		if err != nil {
			return err
		}
		res = r
		return nil
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (rm *repoManager) Close() {
	sqlDB, err := rm.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("failed to close db connection")
	}
}

// conn returns the transaction of the context, if any, or the db.
func (rm *repoManager) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rm.db.WithContext(ctx)
}

func newConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}
