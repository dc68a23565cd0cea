package trade_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/nftswap/swapd/internal/core/application/identity"
	"github.com/nftswap/swapd/internal/core/application/trade"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/nftswap/swapd/internal/infrastructure/storage/db/inmemory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

const tradeTTL = 72 * time.Hour

var (
	alice      = randomAddress()
	bob        = randomAddress()
	carol      = randomAddress()
	escrow     = randomAddress()
	tokenAddr  = randomAddress()
	baseTime   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	aliceNftID = "punk-" + randstr.Hex(4)
	bobNftID   = "ape-" + randstr.Hex(4)
)

type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc      *trade.Service
	repo     ports.RepoManager
	verifier *mockTxVerifier
	notifier *mockNotifier
	clock    *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRepo(t, inmemory.NewRepoManager())
}

func newTestEnvWithRepo(t *testing.T, repo ports.RepoManager) *testEnv {
	t.Helper()

	resolver, err := identity.NewResolver(repo, true)
	require.NoError(t, err)

	verifier := &mockTxVerifier{}
	verifier.On("VerifyTx", mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil)
	notifier := &mockNotifier{}

	svc, err := trade.NewService(
		repo, resolver, verifier, []ports.Notifier{notifier}, tradeTTL,
	)
	require.NoError(t, err)

	clock := &testClock{now: baseTime}
	svc.SetNowFunc(clock.Now)

	return &testEnv{svc, repo, verifier, notifier, clock}
}

// setVerifierResult replaces the default answer of the verifier.
func (e *testEnv) setVerifierResult(ok bool, err error) {
	e.verifier.ExpectedCalls = nil
	e.verifier.On("VerifyTx", mock.Anything, mock.Anything, mock.Anything).
		Return(ok, err)
}

func (e *testEnv) createTrade(t *testing.T) *trade.TradeInfo {
	t.Helper()

	info, err := e.svc.CreateTrade(context.Background(), trade.CreateTradeArgs{
		InitiatorAddress:    alice,
		CounterpartyAddress: bob,
		InitiatorItems: []domain.TradeItem{
			{NftID: aliceNftID, EstimatedValue: decimal.NewFromInt(100)},
		},
		CounterpartyItems: []domain.TradeItem{
			{NftID: bobNftID, EstimatedValue: decimal.NewFromInt(60)},
			{
				TokenAddress:   tokenAddr,
				TokenAmount:    decimal.NewFromInt(50),
				EstimatedValue: decimal.NewFromInt(40),
			},
		},
		Metadata: map[string]string{"source": "test"},
	})
	require.NoError(t, err)
	return info
}

// advanceTo brings a new trade to the given status.
func (e *testEnv) advanceTo(t *testing.T, status domain.TradeStatus) *trade.TradeInfo {
	t.Helper()
	ctx := context.Background()

	info := e.createTrade(t)
	steps := []struct {
		status domain.TradeStatus
		run    func() (*trade.TradeInfo, error)
	}{
		{domain.TradeStatusAgreed, func() (*trade.TradeInfo, error) {
			return e.svc.AcceptTrade(ctx, info.ID, bob)
		}},
		{domain.TradeStatusEscrowDeployed, func() (*trade.TradeInfo, error) {
			return e.svc.DeployEscrow(ctx, info.ID, alice, escrow, randomTxHash())
		}},
		{domain.TradeStatusDeposited, func() (*trade.TradeInfo, error) {
			if _, err := e.svc.RecordDeposit(
				ctx, info.ID, alice, aliceProof(), randomTxHash(),
			); err != nil {
				return nil, err
			}
			return e.svc.RecordDeposit(ctx, info.ID, bob, bobProof(), randomTxHash())
		}},
		{domain.TradeStatusFinalized, func() (*trade.TradeInfo, error) {
			return e.svc.FinalizeTrade(ctx, info.ID, bob, randomTxHash())
		}},
	}

	for _, step := range steps {
		if info.Status == status {
			break
		}
		e.clock.Advance(time.Minute)
		next, err := step.run()
		require.NoError(t, err)
		require.Equal(t, step.status, next.Status)
		info = next
	}
	require.Equal(t, status, info.Status)
	return info
}

func (e *testEnv) history(t *testing.T, tradeID string) []*domain.TradeHistory {
	t.Helper()
	history, err := e.repo.HistoryRepository().GetHistoryForTrade(
		context.Background(), tradeID,
	)
	require.NoError(t, err)
	return history
}

func (e *testEnv) messages(t *testing.T, tradeID string) []*domain.TradeMessage {
	t.Helper()
	messages, err := e.repo.MessageRepository().GetMessagesForTrade(
		context.Background(), tradeID,
	)
	require.NoError(t, err)
	return messages
}

func (e *testEnv) storedTrade(t *testing.T, tradeID string) *domain.Trade {
	t.Helper()
	trade, err := e.repo.TradeRepository().GetTrade(context.Background(), tradeID)
	require.NoError(t, err)
	return trade
}

func aliceProof() domain.DepositProof {
	return domain.DepositProof{NftIDs: []string{aliceNftID}}
}

func bobProof() domain.DepositProof {
	return domain.DepositProof{
		NftIDs: []string{bobNftID},
		TokenAmounts: map[string]decimal.Decimal{
			"0x" + strings.ToUpper(tokenAddr[2:]): decimal.NewFromInt(50),
		},
	}
}

func randomAddress() string {
	key, _ := crypto.GenerateKey()
	return strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func randomTxHash() string {
	return crypto.Keccak256Hash([]byte(randstr.String(16))).Hex()
}

func countActions(history []*domain.TradeHistory, action domain.TradeAction) int {
	count := 0
	for _, h := range history {
		if h.Action == action {
			count++
		}
	}
	return count
}
