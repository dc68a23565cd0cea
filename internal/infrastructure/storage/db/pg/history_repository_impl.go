package postgresdb

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
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
	m, err := toHistoryModel(*history)
	if err != nil {
		return err
	}
	if err := r.db.conn(ctx).Create(m).Error; err != nil {
		return err
	}
	history.Seq = m.Seq
	return nil
}

func (r *historyRepositoryImpl) GetHistoryForTrade(
	ctx context.Context, tradeID string,
) ([]*domain.TradeHistory, error) {
	var models []historyModel
	if err := r.db.conn(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at").Order("seq").
		Find(&models).Error; err != nil {
		return nil, err
	}

	history := make([]*domain.TradeHistory, 0, len(models))
	for _, m := range models {
		h, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, nil
}
