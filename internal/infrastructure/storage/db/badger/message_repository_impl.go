package dbbadger

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
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
	msg, err := mapDomainMessageToInfraMessage(*message)
	if err != nil {
		return err
	}

	if err := r.db.write(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxInsert(tx, badgerhold.NextSequence(), msg)
	}); err != nil {
		return err
	}

	message.Seq = domainSeq(msg.Seq)
	return nil
}

func (r *messageRepositoryImpl) GetMessagesForTrade(
	ctx context.Context, tradeID string,
) ([]*domain.TradeMessage, error) {
	query := badgerhold.Where("TradeID").Eq(tradeID).Index("TradeID")

	var stored []TradeMessage
	if err := r.db.read(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxFind(tx, &stored, query)
	}); err != nil {
		return nil, err
	}

	messages := make([]*domain.TradeMessage, 0, len(stored))
	for _, m := range stored {
		msg, err := mapInfraMessageToDomainMessage(m)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].Seq < messages[j].Seq
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}
