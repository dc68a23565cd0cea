package dbbadger

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type historyRepositoryImpl struct {
	db *repoManager
}

func NewHistoryRepositoryImpl(db *repoManager) domain.TradeHistoryRepository {
	return &historyRepositoryImpl{db}
}

func (r *historyRepositoryImpl) AddHistory(
	ctx context.Context, history *domain.TradeHistory,
) error {
	entry, err := mapDomainHistoryToInfraHistory(*history)
	if err != nil {
		return err
	}

	if err := r.db.write(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxInsert(tx, badgerhold.NextSequence(), entry)
	}); err != nil {
		return err
	}

	history.Seq = domainSeq(entry.Seq)
	return nil
}

func (r *historyRepositoryImpl) GetHistoryForTrade(
	ctx context.Context, tradeID string,
) ([]*domain.TradeHistory, error) {
	query := badgerhold.Where("TradeID").Eq(tradeID).Index("TradeID")

	var stored []TradeHistory
	if err := r.db.read(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxFind(tx, &stored, query)
	}); err != nil {
		return nil, err
	}

	history := make([]*domain.TradeHistory, 0, len(stored))
	for _, h := range stored {
		entry, err := mapInfraHistoryToDomainHistory(h)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].CreatedAt.Equal(history[j].CreatedAt) {
			return history[i].Seq < history[j].Seq
		}
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history, nil
}
