package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const maxConflictRetries = 5

type txKey struct{}

type repoManager struct {
	store *badgerhold.Store

	tradeRepository   domain.TradeRepository
	historyRepository domain.TradeHistoryRepository
	messageRepository domain.TradeMessageRepository
	userRepository    domain.UserRepository
}

// NewRepoManager opens (or creates if not exists) the badger store in the
// given base data dir. An empty dir makes the store live in memory only.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "trades")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening trades db: %w", err)
	}

	rm := &repoManager{store: store}
	rm.tradeRepository = NewTradeRepositoryImpl(rm)
	rm.historyRepository = NewHistoryRepositoryImpl(rm)
	rm.messageRepository = NewMessageRepositoryImpl(rm)
	rm.userRepository = NewUserRepositoryImpl(rm)
	return rm, nil
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

// RunTransaction runs the handler within a badger transaction. Badger detects
// conflicting writes at commit time, in that case the handler is run again
// against the fresh state so that its preconditions are checked once more.
func (rm *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if _, ok := txFromContext(ctx); ok {
		return handler(ctx)
	}

	for i := 0; i < maxConflictRetries; i++ {
		res, err := rm.runTransaction(ctx, readOnly, handler)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}
		log.Debugf("db transaction conflict, retrying (%d/%d)", i+1, maxConflictRetries)
	}
	return nil, domain.ErrTradeConcurrentUpdate
}

func (rm *repoManager) Close() {
	if err := rm.store.Close(); err != nil {
		log.WithError(err).Warn("failed to close trades db")
	}
}

func (rm *repoManager) runTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	tx := rm.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return nil, err
	}
	if readOnly {
		return res, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// read runs fn with the transaction of the context, or within a new
// read-only one.
func (rm *repoManager) read(ctx context.Context, fn func(tx *badger.Txn) error) error {
	if tx, ok := txFromContext(ctx); ok {
		return fn(tx)
	}
	return rm.store.Badger().View(fn)
}

// write runs fn with the transaction of the context, or within a new
// read-write one committed right after.
func (rm *repoManager) write(ctx context.Context, fn func(tx *badger.Txn) error) error {
	if _, ok := txFromContext(ctx); !ok {
		_, err := rm.RunTransaction(
			ctx, false, func(ctx context.Context) (interface{}, error) {
				return nil, rm.write(ctx, fn)
			},
		)
		return err
	}

	tx, _ := txFromContext(ctx)
	if err := fn(tx); err != nil {
		if errors.Is(err, badger.ErrReadOnlyTxn) {
			return ErrReadOnlyTx
		}
		return err
	}
	return nil
}

func txFromContext(ctx context.Context) (*badger.Txn, bool) {
	tx, ok := ctx.Value(txKey{}).(*badger.Txn)
	return tx, ok && tx != nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
