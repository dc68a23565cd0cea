package trade_test

import (
	"context"
	"sync"

	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// **** TxVerifier ****

type mockTxVerifier struct {
	mock.Mock
}

func (m *mockTxVerifier) VerifyTx(
	ctx context.Context, txHash string, effect ports.TxEffect,
) (bool, error) {
	args := m.Called(ctx, txHash, effect)

	var res bool
	if a := args.Get(0); a != nil {
		res = a.(bool)
	}
	return res, args.Error(1)
}

// **** Notifier ****

type mockNotifier struct {
	lock   sync.Mutex
	events []ports.TradeEvent
}

func (m *mockNotifier) Notify(_ context.Context, event ports.TradeEvent) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.events = append(m.events, event)
	return nil
}

func (m *mockNotifier) topics() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	topics := make([]string, 0, len(m.events))
	for _, e := range m.events {
		topics = append(topics, e.Topic)
	}
	return topics
}
