package inmemory

import (
	"context"
	"sort"

	"github.com/nftswap/swapd/internal/core/domain"
)

type historyRepositoryImpl struct {
	db *RepoManager
}

// NewHistoryRepositoryImpl returns a new inmemory TradeHistoryRepository
// implementation.
func NewHistoryRepositoryImpl(db *RepoManager) domain.TradeHistoryRepository {
	return &historyRepositoryImpl{db}
}

func (r *historyRepositoryImpl) AddHistory(
	ctx context.Context, history *domain.TradeHistory,
) error {
	return r.db.write(ctx, func(data *memoryData) error {
		history.Seq = data.nextSeq()
		entries := data.history[history.TradeID]
		data.history[history.TradeID] = append(
			append(make([]domain.TradeHistory, 0, len(entries)+1), entries...),
			*history,
		)
		return nil
	})
}

func (r *historyRepositoryImpl) GetHistoryForTrade(
	ctx context.Context, tradeID string,
) ([]*domain.TradeHistory, error) {
	entries := r.db.read(ctx).history[tradeID]
	history := make([]*domain.TradeHistory, 0, len(entries))
	for i := range entries {
		h := entries[i]
		history = append(history, &h)
	}
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].CreatedAt.Equal(history[j].CreatedAt) {
			return history[i].Seq < history[j].Seq
		}
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history, nil
}
