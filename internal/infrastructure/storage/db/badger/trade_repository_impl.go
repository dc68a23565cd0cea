package dbbadger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type tradeRepositoryImpl struct {
	db *repoManager
}

func NewTradeRepositoryImpl(db *repoManager) domain.TradeRepository {
	return &tradeRepositoryImpl{db}
}

func (r *tradeRepositoryImpl) AddTrade(ctx context.Context, trade *domain.Trade) error {
	return r.db.write(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxInsert(tx, trade.ID, mapDomainTradeToInfraTrade(*trade))
	})
}

func (r *tradeRepositoryImpl) GetTrade(
	ctx context.Context, tradeID string,
) (*domain.Trade, error) {
	var trade *domain.Trade
	if err := r.db.read(ctx, func(tx *badger.Txn) error {
		t, err := r.getTrade(tx, tradeID)
		trade = t
		return err
	}); err != nil {
		return nil, err
	}
	return trade, nil
}

func (r *tradeRepositoryImpl) UpdateTrade(
	ctx context.Context,
	tradeID string,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) error {
	return r.db.write(ctx, func(tx *badger.Txn) error {
		currentTrade, err := r.getTrade(tx, tradeID)
		if err != nil {
			return err
		}

		updatedTrade, err := updateFn(currentTrade)
		if err != nil {
			return err
		}

		return r.db.store.TxUpdate(
			tx, tradeID, mapDomainTradeToInfraTrade(*updatedTrade),
		)
	})
}

func (r *tradeRepositoryImpl) GetTradesForUser(
	ctx context.Context, userID string, filter domain.TradeFilter, page domain.Page,
) ([]*domain.Trade, int, error) {
	// Badgerhold runs OR'ed queries through the index of the first one only,
	// so each role is looked up on its own index and the results are merged.
	initiatorQuery := badgerhold.Where("InitiatorID").Eq(userID).Index("InitiatorID")
	counterpartyQuery := badgerhold.Where("CounterpartyID").Eq(userID).Index("CounterpartyID")
	if filter.Status != "" {
		initiatorQuery = initiatorQuery.And("Status").Eq(filter.Status.String())
		counterpartyQuery = counterpartyQuery.And("Status").Eq(filter.Status.String())
	}

	asInitiator, err := r.findTrades(ctx, initiatorQuery)
	if err != nil {
		return nil, 0, err
	}
	asCounterparty, err := r.findTrades(ctx, counterpartyQuery)
	if err != nil {
		return nil, 0, err
	}

	trades := mergeTrades(asInitiator, asCounterparty)
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})

	start, end := page.Bounds(len(trades))
	return trades[start:end], len(trades), nil
}

func (r *tradeRepositoryImpl) GetTradesBetweenUsers(
	ctx context.Context, userID, partnerID string,
) ([]*domain.Trade, error) {
	query := badgerhold.
		Where("InitiatorID").Eq(userID).And("CounterpartyID").Eq(partnerID).
		Or(badgerhold.
			Where("InitiatorID").Eq(partnerID).And("CounterpartyID").Eq(userID),
		)

	trades, err := r.findTrades(ctx, query)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.Before(trades[j].CreatedAt)
	})
	return trades, nil
}

func (r *tradeRepositoryImpl) GetTradesNotUpdatedSince(
	ctx context.Context, statuses []domain.TradeStatus, since time.Time,
) ([]*domain.Trade, error) {
	if len(statuses) <= 0 {
		return nil, nil
	}

	values := make([]interface{}, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, st.String())
	}
	query := badgerhold.Where("Status").In(values...).Index("Status").
		And("UpdatedAt").Le(since)

	trades, err := r.findTrades(ctx, query)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].UpdatedAt.Before(trades[j].UpdatedAt)
	})
	return trades, nil
}

func (r *tradeRepositoryImpl) getTrade(
	tx *badger.Txn, tradeID string,
) (*domain.Trade, error) {
	var trade Trade
	if err := r.db.store.TxGet(tx, tradeID, &trade); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, err
	}
	return mapInfraTradeToDomainTrade(trade), nil
}

func (r *tradeRepositoryImpl) findTrades(
	ctx context.Context, query *badgerhold.Query,
) ([]*domain.Trade, error) {
	var stored []Trade
	if err := r.db.read(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxFind(tx, &stored, query)
	}); err != nil {
		return nil, err
	}

	trades := make([]*domain.Trade, 0, len(stored))
	for _, t := range stored {
		trades = append(trades, mapInfraTradeToDomainTrade(t))
	}
	return trades, nil
}

// mergeTrades concatenates the given lists skipping the trades already seen.
func mergeTrades(lists ...[]*domain.Trade) []*domain.Trade {
	seen := make(map[string]struct{})
	merged := make([]*domain.Trade, 0)
	for _, list := range lists {
		for _, t := range list {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}
