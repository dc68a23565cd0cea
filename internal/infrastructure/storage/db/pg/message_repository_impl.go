package postgresdb

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
)

type messageRepositoryImpl struct {
	db *repoManager
}

func NewMessageRepositoryImpl(db *repoManager) domain.TradeMessageRepository {
	return &messageRepositoryImpl{db}
}

func (r *messageRepositoryImpl) AddMessage(
	ctx context.Context, message *domain.TradeMessage,
) error {
	m, err := toMessageModel(*message)
	if err != nil {
		return err
	}
	if err := r.db.conn(ctx).Create(m).Error; err != nil {
		return err
	}
	message.Seq = m.Seq
	return nil
}

func (r *messageRepositoryImpl) GetMessagesForTrade(
	ctx context.Context, tradeID string,
) ([]*domain.TradeMessage, error) {
	var models []messageModel
	if err := r.db.conn(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at").Order("seq").
		Find(&models).Error; err != nil {
		return nil, err
	}

	messages := make([]*domain.TradeMessage, 0, len(models))
	for _, m := range models {
		msg, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
