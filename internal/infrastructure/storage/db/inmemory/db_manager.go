package inmemory

import (
	"context"
	"sync"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
)

type txKey struct{}

// memoryTx is the state carried in the context of a transaction.
type memoryTx struct {
	data     *memoryData
	readOnly bool
}

// RepoManager keeps everything in memory. Committed data is never modified in
// place: a write transaction works on a copy that replaces the committed one
// on success. Write transactions are serialized, reads never block them.
type RepoManager struct {
	txLock sync.Mutex
	lock   sync.RWMutex
	data   *memoryData

	tradeRepository   domain.TradeRepository
	historyRepository domain.TradeHistoryRepository
	messageRepository domain.TradeMessageRepository
	userRepository    domain.UserRepository
}

func NewRepoManager() ports.RepoManager {
	m := &RepoManager{data: newMemoryData()}
	m.tradeRepository = NewTradeRepositoryImpl(m)
	m.historyRepository = NewHistoryRepositoryImpl(m)
	m.messageRepository = NewMessageRepositoryImpl(m)
	m.userRepository = NewUserRepositoryImpl(m)
	return m
}

func (m *RepoManager) TradeRepository() domain.TradeRepository {
	return m.tradeRepository
}

func (m *RepoManager) HistoryRepository() domain.TradeHistoryRepository {
	return m.historyRepository
}

func (m *RepoManager) MessageRepository() domain.TradeMessageRepository {
	return m.messageRepository
}

func (m *RepoManager) UserRepository() domain.UserRepository {
	return m.userRepository
}

func (m *RepoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	// Nested transactions join the outer one.
	if _, ok := ctx.Value(txKey{}).(*memoryTx); ok {
		return handler(ctx)
	}

	if readOnly {
		tx := &memoryTx{data: m.snapshot(), readOnly: true}
		return handler(context.WithValue(ctx, txKey{}, tx))
	}

	m.txLock.Lock()
	defer m.txLock.Unlock()

	tx := &memoryTx{data: m.snapshot().clone()}
	result, err := handler(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return nil, err
	}

	m.lock.Lock()
	m.data = tx.data
	m.lock.Unlock()
	return result, nil
}

func (m *RepoManager) Close() {}

func (m *RepoManager) snapshot() *memoryData {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.data
}

// read returns the data visible from the given context.
func (m *RepoManager) read(ctx context.Context) *memoryData {
	if tx, ok := ctx.Value(txKey{}).(*memoryTx); ok {
		return tx.data
	}
	return m.snapshot()
}

// write applies fn to the data of the transaction in context, or to a new
// transaction if there's none.
func (m *RepoManager) write(
	ctx context.Context, fn func(data *memoryData) error,
) error {
	if tx, ok := ctx.Value(txKey{}).(*memoryTx); ok {
		if tx.readOnly {
			return ErrReadOnlyTx
		}
		return fn(tx.data)
	}

	_, err := m.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, fn(ctx.Value(txKey{}).(*memoryTx).data)
		},
	)
	return err
}
