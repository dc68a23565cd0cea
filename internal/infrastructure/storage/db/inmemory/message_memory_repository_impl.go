package inmemory

import (
	"context"
	"sort"

	"github.com/nftswap/swapd/internal/core/domain"
)

type messageRepositoryImpl struct {
	db *RepoManager
}

// NewMessageRepositoryImpl returns a new inmemory TradeMessageRepository
// implementation.
func NewMessageRepositoryImpl(db *RepoManager) domain.TradeMessageRepository {
	return &messageRepositoryImpl{db}
}

func (r *messageRepositoryImpl) AddMessage(
	ctx context.Context, message *domain.TradeMessage,
) error {
	return r.db.write(ctx, func(data *memoryData) error {
		message.Seq = data.nextSeq()
		messages := data.messages[message.TradeID]
		data.messages[message.TradeID] = append(
			append(make([]domain.TradeMessage, 0, len(messages)+1), messages...),
			*message,
		)
		return nil
	})
}

func (r *messageRepositoryImpl) GetMessagesForTrade(
	ctx context.Context, tradeID string,
) ([]*domain.TradeMessage, error) {
	stored := r.db.read(ctx).messages[tradeID]
	messages := make([]*domain.TradeMessage, 0, len(stored))
	for i := range stored {
		m := stored[i]
		messages = append(messages, &m)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].Seq < messages[j].Seq
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}
