package inmemory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
)

type tradeRepositoryImpl struct {
	db *RepoManager
}

// NewTradeRepositoryImpl returns a new inmemory TradeRepository implementation.
func NewTradeRepositoryImpl(db *RepoManager) domain.TradeRepository {
	return &tradeRepositoryImpl{db}
}

func (r *tradeRepositoryImpl) AddTrade(ctx context.Context, trade *domain.Trade) error {
	return r.db.write(ctx, func(data *memoryData) error {
		if _, ok := data.trades[trade.ID]; ok {
			return fmt.Errorf("trade with id %s already exists", trade.ID)
		}
		data.trades[trade.ID] = cloneTrade(*trade)
		return nil
	})
}

func (r *tradeRepositoryImpl) GetTrade(
	ctx context.Context, tradeID string,
) (*domain.Trade, error) {
	t, ok := r.db.read(ctx).trades[tradeID]
	if !ok {
		return nil, domain.ErrTradeNotFound
	}
	trade := cloneTrade(t)
	return &trade, nil
}

func (r *tradeRepositoryImpl) UpdateTrade(
	ctx context.Context,
	tradeID string,
	updateFn func(t *domain.Trade) (*domain.Trade, error),
) error {
	return r.db.write(ctx, func(data *memoryData) error {
		t, ok := data.trades[tradeID]
		if !ok {
			return domain.ErrTradeNotFound
		}
		current := cloneTrade(t)

		updated, err := updateFn(&current)
		if err != nil {
			return err
		}
		data.trades[tradeID] = cloneTrade(*updated)
		return nil
	})
}

func (r *tradeRepositoryImpl) GetTradesForUser(
	ctx context.Context, userID string, filter domain.TradeFilter, page domain.Page,
) ([]*domain.Trade, int, error) {
	trades := r.findTrades(ctx, func(t domain.Trade) bool {
		isParty := t.InitiatorID == userID || t.CounterpartyID == userID
		return isParty && filter.Match(&t)
	})
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})

	start, end := page.Bounds(len(trades))
	return trades[start:end], len(trades), nil
}

func (r *tradeRepositoryImpl) GetTradesBetweenUsers(
	ctx context.Context, userID, partnerID string,
) ([]*domain.Trade, error) {
	trades := r.findTrades(ctx, func(t domain.Trade) bool {
		return (t.InitiatorID == userID && t.CounterpartyID == partnerID) ||
			(t.InitiatorID == partnerID && t.CounterpartyID == userID)
	})
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.Before(trades[j].CreatedAt)
	})
	return trades, nil
}

func (r *tradeRepositoryImpl) GetTradesNotUpdatedSince(
	ctx context.Context, statuses []domain.TradeStatus, since time.Time,
) ([]*domain.Trade, error) {
	trades := r.findTrades(ctx, func(t domain.Trade) bool {
		if t.UpdatedAt.After(since) {
			return false
		}
		for _, st := range statuses {
			if t.Status == st {
				return true
			}
		}
		return false
	})
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].UpdatedAt.Before(trades[j].UpdatedAt)
	})
	return trades, nil
}

// findTrades returns the matching trades ordered by id, callers sort them as
// needed.
func (r *tradeRepositoryImpl) findTrades(
	ctx context.Context, match func(t domain.Trade) bool,
) []*domain.Trade {
	data := r.db.read(ctx)
	trades := make([]*domain.Trade, 0)
	for _, t := range data.trades {
		if match(t) {
			trade := cloneTrade(t)
			trades = append(trades, &trade)
		}
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].ID < trades[j].ID
	})
	return trades
}
