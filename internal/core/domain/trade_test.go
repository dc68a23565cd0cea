package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	initiator = &domain.User{
		ID: "initiator-id", Address: "0x1111111111111111111111111111111111111111",
	}
	counterparty = &domain.User{
		ID: "counterparty-id", Address: "0x2222222222222222222222222222222222222222",
	}
	stranger = "stranger-id"

	escrowAddress = "0x3333333333333333333333333333333333333333"
	tokenAddress  = "0x4444444444444444444444444444444444444444"
	txHash        = "0x" + strings.Repeat("ab", 32)
	now           = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
)

func TestNewTrade(t *testing.T) {
	initiatorItems := []domain.TradeItem{{NftID: "nft-1"}}
	counterpartyItems := []domain.TradeItem{
		{TokenAddress: tokenAddress, TokenAmount: decimal.NewFromInt(10)},
	}

	trade, change, err := domain.NewTrade(
		initiator, counterparty, initiatorItems, counterpartyItems,
		map[string]string{"source": "test"}, now,
	)
	require.NoError(t, err)
	require.NotNil(t, trade)
	require.NotEmpty(t, trade.ID)
	require.Equal(t, domain.TradeStatusPending, trade.Status)
	require.Len(t, trade.ItemsForSide(domain.SideInitiator), 1)
	require.Len(t, trade.ItemsForSide(domain.SideCounterparty), 1)
	require.Equal(t, "test", trade.Metadata["source"])
	for _, it := range trade.Items {
		require.Equal(t, trade.ID, it.TradeID)
		require.NotEmpty(t, it.ID)
	}

	require.Equal(t, domain.TradeActionCreated, change.Action)
	require.Empty(t, change.OldStatus)
	require.Equal(t, domain.TradeStatusPending, change.NewStatus)
	require.Equal(t, domain.CreatedMeta{InitiatorItems: 1, CounterpartyItems: 1}, change.Metadata)
}

func TestFailingNewTrade(t *testing.T) {
	tests := []struct {
		name              string
		counterparty      *domain.User
		initiatorItems    []domain.TradeItem
		counterpartyItems []domain.TradeItem
		expectedError     error
	}{
		{
			name:           "self_trade",
			counterparty:   initiator,
			initiatorItems: []domain.TradeItem{{NftID: "nft-1"}},
			expectedError:  domain.ErrSelfTrade,
		},
		{
			name:           "missing_initiator_items",
			counterparty:   counterparty,
			initiatorItems: nil,
			expectedError:  domain.ErrMissingInitiatorItems,
		},
		{
			name:           "item_with_nft_and_token",
			counterparty:   counterparty,
			initiatorItems: []domain.TradeItem{{NftID: "nft-1", TokenAddress: tokenAddress, TokenAmount: decimal.NewFromInt(1)}},
			expectedError:  domain.ErrInvalidItem,
		},
		{
			name:              "empty_item",
			counterparty:      counterparty,
			initiatorItems:    []domain.TradeItem{{NftID: "nft-1"}},
			counterpartyItems: []domain.TradeItem{{}},
			expectedError:     domain.ErrInvalidItem,
		},
		{
			name:           "token_with_zero_amount",
			counterparty:   counterparty,
			initiatorItems: []domain.TradeItem{{TokenAddress: tokenAddress}},
			expectedError:  domain.ErrInvalidItem,
		},
		{
			name:           "token_with_malformed_address",
			counterparty:   counterparty,
			initiatorItems: []domain.TradeItem{{TokenAddress: "0xnope", TokenAmount: decimal.NewFromInt(1)}},
			expectedError:  domain.ErrInvalidItem,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trade, change, err := domain.NewTrade(
				initiator, tt.counterparty, tt.initiatorItems, tt.counterpartyItems,
				nil, now,
			)
			require.ErrorIs(t, err, tt.expectedError)
			require.ErrorIs(t, err, domain.ErrValidation)
			require.Nil(t, trade)
			require.Nil(t, change)
		})
	}
}

func TestTradeNegotiation(t *testing.T) {
	t.Run("counterparty_accepts", func(t *testing.T) {
		trade := newPendingTrade(t)

		change, err := trade.Accept(counterparty.ID, now)
		require.NoError(t, err)
		require.Equal(t, domain.TradeActionAgreed, change.Action)
		require.Equal(t, domain.TradeStatusPending, change.OldStatus)
		require.Equal(t, domain.TradeStatusAgreed, trade.Status)
	})

	t.Run("counter_then_accept", func(t *testing.T) {
		trade := newPendingTrade(t)

		change, err := trade.Counter(counterparty.ID, "add 5 more tokens", now)
		require.NoError(t, err)
		require.Equal(t, domain.TradeStatusCountered, trade.Status)
		require.Equal(t, domain.CounteredMeta{Note: "add 5 more tokens"}, change.Metadata)

		_, err = trade.Accept(counterparty.ID, now)
		require.ErrorIs(t, err, domain.ErrCallerNotInitiator)

		_, err = trade.Accept(initiator.ID, now)
		require.NoError(t, err)
		require.Equal(t, domain.TradeStatusAgreed, trade.Status)
	})

	t.Run("counter_then_decline", func(t *testing.T) {
		trade := newPendingTrade(t)

		_, err := trade.Counter(counterparty.ID, "", now)
		require.NoError(t, err)

		change, err := trade.DeclineCounter(initiator.ID, "no way", now)
		require.NoError(t, err)
		require.Equal(t, domain.TradeStatusCountered, change.OldStatus)
		require.Equal(t, domain.TradeStatusPending, trade.Status)
	})
}

func TestFailingTradeNegotiation(t *testing.T) {
	tests := []struct {
		name          string
		trade         func(t *testing.T) *domain.Trade
		action        func(trade *domain.Trade) error
		expectedError error
	}{
		{
			name:  "initiator_accepts_own_offer",
			trade: newPendingTrade,
			action: func(trade *domain.Trade) error {
				_, err := trade.Accept(initiator.ID, now)
				return err
			},
			expectedError: domain.ErrCallerNotCounterparty,
		},
		{
			name:  "stranger_accepts",
			trade: newPendingTrade,
			action: func(trade *domain.Trade) error {
				_, err := trade.Accept(stranger, now)
				return err
			},
			expectedError: domain.ErrCallerNotParty,
		},
		{
			name:  "initiator_counters",
			trade: newPendingTrade,
			action: func(trade *domain.Trade) error {
				_, err := trade.Counter(initiator.ID, "", now)
				return err
			},
			expectedError: domain.ErrCallerNotCounterparty,
		},
		{
			name:  "counter_agreed_trade",
			trade: newAgreedTrade,
			action: func(trade *domain.Trade) error {
				_, err := trade.Counter(counterparty.ID, "", now)
				return err
			},
			expectedError: domain.ErrTradeMustBePending,
		},
		{
			name:  "decline_pending_trade",
			trade: newPendingTrade,
			action: func(trade *domain.Trade) error {
				_, err := trade.DeclineCounter(initiator.ID, "", now)
				return err
			},
			expectedError: domain.ErrTradeMustBeCountered,
		},
		{
			name:  "accept_agreed_trade",
			trade: newAgreedTrade,
			action: func(trade *domain.Trade) error {
				_, err := trade.Accept(counterparty.ID, now)
				return err
			},
			expectedError: domain.ErrTradeMustBePendingOrCountered,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trade := tt.trade(t)
			status := trade.Status

			err := tt.action(trade)
			require.ErrorIs(t, err, tt.expectedError)
			require.Equal(t, status, trade.Status)
		})
	}
}

func TestTradeDeployEscrow(t *testing.T) {
	trade := newAgreedTrade(t)

	change, err := trade.DeployEscrow(
		initiator.ID, "0x3333333333333333333333333333333333333333", txHash, now,
	)
	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusEscrowDeployed, trade.Status)
	require.Equal(t, escrowAddress, trade.EscrowAddress)
	require.NotNil(t, trade.EscrowDeployedAt)
	require.Equal(t, txHash, trade.Metadata[domain.MetadataEscrowTxHash])
	require.Equal(t, domain.EscrowDeployedMeta{
		EscrowAddress: escrowAddress, TxHash: txHash,
	}, change.Metadata)
}

func TestFailingTradeDeployEscrow(t *testing.T) {
	tests := []struct {
		name          string
		trade         func(t *testing.T) *domain.Trade
		callerID      string
		escrowAddress string
		txHash        string
		expectedError error
	}{
		{
			name:          "counterparty_caller",
			trade:         newAgreedTrade,
			callerID:      counterparty.ID,
			escrowAddress: escrowAddress,
			txHash:        txHash,
			expectedError: domain.ErrUnauthorized,
		},
		{
			name:          "stranger_caller",
			trade:         newAgreedTrade,
			callerID:      stranger,
			escrowAddress: escrowAddress,
			txHash:        txHash,
			expectedError: domain.ErrCallerNotParty,
		},
		{
			name:          "pending_trade",
			trade:         newPendingTrade,
			callerID:      initiator.ID,
			escrowAddress: escrowAddress,
			txHash:        txHash,
			expectedError: domain.ErrTradeMustBeAgreed,
		},
		{
			name:          "already_deployed",
			trade:         newEscrowDeployedTrade,
			callerID:      initiator.ID,
			escrowAddress: escrowAddress,
			txHash:        txHash,
			expectedError: domain.ErrInvalidStateTransition,
		},
		{
			name:          "malformed_escrow_address",
			trade:         newAgreedTrade,
			callerID:      initiator.ID,
			escrowAddress: "escrow",
			txHash:        txHash,
			expectedError: domain.ErrInvalidAddress,
		},
		{
			name:          "malformed_tx_hash",
			trade:         newAgreedTrade,
			callerID:      initiator.ID,
			escrowAddress: escrowAddress,
			txHash:        "0x1234",
			expectedError: domain.ErrInvalidTxHash,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trade := tt.trade(t)
			status := trade.Status
			escrow := trade.EscrowAddress

			change, err := trade.DeployEscrow(tt.callerID, tt.escrowAddress, tt.txHash, now)
			require.ErrorIs(t, err, tt.expectedError)
			require.Nil(t, change)
			require.Equal(t, status, trade.Status)
			require.Equal(t, escrow, trade.EscrowAddress)
		})
	}
}

func TestTradeRecordDeposit(t *testing.T) {
	t.Run("both_sides", func(t *testing.T) {
		trade := newEscrowDeployedTrade(t)

		change, err := trade.RecordDeposit(initiator.ID, domain.DepositProof{
			NftIDs: []string{"nft-1"},
		}, txHash, now)
		require.NoError(t, err)
		require.Equal(t, domain.TradeActionDepositRecorded, change.Action)
		require.Equal(t, domain.TradeStatusEscrowDeployed, trade.Status)
		require.True(t, trade.Deposits.Initiator.Complete)
		require.False(t, trade.Deposits.Counterparty.Complete)

		change, err = trade.RecordDeposit(counterparty.ID, domain.DepositProof{
			TokenAmounts: map[string]decimal.Decimal{
				"0x4444444444444444444444444444444444444444": decimal.NewFromInt(10),
			},
		}, txHash, now)
		require.NoError(t, err)
		require.Equal(t, domain.TradeActionDeposited, change.Action)
		require.Equal(t, domain.TradeStatusEscrowDeployed, change.OldStatus)
		require.Equal(t, domain.TradeStatusDeposited, trade.Status)
		require.True(t, change.Metadata.(domain.DepositMeta).Complete)
	})

	t.Run("counterparty_without_items", func(t *testing.T) {
		trade, _, err := domain.NewTrade(
			initiator, counterparty, []domain.TradeItem{{NftID: "nft-1"}}, nil, nil, now,
		)
		require.NoError(t, err)
		_, err = trade.Accept(counterparty.ID, now)
		require.NoError(t, err)
		_, err = trade.DeployEscrow(initiator.ID, escrowAddress, txHash, now)
		require.NoError(t, err)

		change, err := trade.RecordDeposit(initiator.ID, domain.DepositProof{
			NftIDs: []string{"nft-1"},
		}, txHash, now)
		require.NoError(t, err)
		require.Equal(t, domain.TradeActionDeposited, change.Action)
		require.Equal(t, domain.TradeStatusDeposited, trade.Status)
	})
}

func TestFailingTradeRecordDeposit(t *testing.T) {
	t.Run("incomplete", func(t *testing.T) {
		trade := newEscrowDeployedTrade(t)

		change, err := trade.RecordDeposit(counterparty.ID, domain.DepositProof{
			TokenAmounts: map[string]decimal.Decimal{tokenAddress: decimal.NewFromInt(9)},
		}, txHash, now)
		require.ErrorIs(t, err, domain.ErrIncompleteDeposit)
		require.Nil(t, change)
		require.False(t, trade.Deposits.Counterparty.Complete)
		require.Equal(t, domain.TradeStatusEscrowDeployed, trade.Status)

		var depositErr *domain.IncompleteDepositError
		require.ErrorAs(t, err, &depositErr)
		require.Equal(t, domain.SideCounterparty, depositErr.Side)
		require.Len(t, depositErr.Missing, 1)
	})

	t.Run("side_already_deposited", func(t *testing.T) {
		trade := newEscrowDeployedTrade(t)
		proof := domain.DepositProof{NftIDs: []string{"nft-1"}}

		_, err := trade.RecordDeposit(initiator.ID, proof, txHash, now)
		require.NoError(t, err)

		_, err = trade.RecordDeposit(initiator.ID, proof, txHash, now)
		require.ErrorIs(t, err, domain.ErrSideAlreadyDeposited)
		require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("not_escrow_deployed", func(t *testing.T) {
		trade := newAgreedTrade(t)

		_, err := trade.RecordDeposit(initiator.ID, domain.DepositProof{
			NftIDs: []string{"nft-1"},
		}, txHash, now)
		require.ErrorIs(t, err, domain.ErrTradeMustBeEscrowDeployed)
	})

	t.Run("stranger", func(t *testing.T) {
		trade := newEscrowDeployedTrade(t)

		_, err := trade.RecordDeposit(stranger, domain.DepositProof{}, txHash, now)
		require.ErrorIs(t, err, domain.ErrCallerNotParty)
	})
}

func TestTradeFinalize(t *testing.T) {
	trade := newDepositedTrade(t)

	change, err := trade.Finalize(counterparty.ID, txHash, now)
	require.NoError(t, err)
	require.Equal(t, domain.TradeActionFinalized, change.Action)
	require.Equal(t, domain.TradeStatusFinalized, trade.Status)
	require.NotNil(t, trade.FinalizedAt)
	require.Equal(t, txHash, trade.Metadata[domain.MetadataFinalizeTxHash])

	finalizedAt := *trade.FinalizedAt
	_, err = trade.Finalize(initiator.ID, txHash, now.Add(time.Minute))
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	require.Equal(t, finalizedAt, *trade.FinalizedAt)
}

func TestTradeCancel(t *testing.T) {
	tests := []struct {
		name          string
		trade         func(t *testing.T) *domain.Trade
		expectedError error
	}{
		{name: "pending", trade: newPendingTrade},
		{name: "countered", trade: newCounteredTrade},
		{name: "agreed", trade: newAgreedTrade},
		{
			name:          "escrow_deployed",
			trade:         newEscrowDeployedTrade,
			expectedError: domain.ErrTradeNotCancellable,
		},
		{
			name:          "deposited",
			trade:         newDepositedTrade,
			expectedError: domain.ErrTradeNotCancellable,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trade := tt.trade(t)
			change, err := trade.Cancel(counterparty.ID, "changed my mind", now)
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				require.NotEqual(t, domain.TradeStatusCancelled, trade.Status)
				return
			}
			require.NoError(t, err)
			require.Equal(t, domain.TradeStatusCancelled, trade.Status)
			require.Equal(t, "changed my mind", trade.Metadata[domain.MetadataCancelReason])
			require.Equal(t, domain.CancelledMeta{Reason: "changed my mind"}, change.Metadata)
		})
	}
}

func TestTradeExpire(t *testing.T) {
	ttl := time.Hour

	trade := newPendingTrade(t)
	require.False(t, trade.IsStale(ttl, now.Add(30*time.Minute)))

	_, err := trade.Expire(ttl, now.Add(30*time.Minute))
	require.ErrorIs(t, err, domain.ErrTradeNotStale)

	change, err := trade.Expire(ttl, now.Add(ttl))
	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusExpired, trade.Status)
	require.Equal(t, domain.ExpiredMeta{TTLSeconds: 3600}, change.Metadata)

	agreed := newAgreedTrade(t)
	require.False(t, agreed.IsStale(ttl, now.Add(24*time.Hour)))
	_, err = agreed.Expire(ttl, now.Add(24*time.Hour))
	require.ErrorIs(t, err, domain.ErrTradeMustBePendingOrCountered)
}

func TestTradeStatusNeverGoesBackward(t *testing.T) {
	trade := newPendingTrade(t)
	rank := trade.Status.Rank()

	steps := []func() (*domain.StatusChange, error){
		func() (*domain.StatusChange, error) { return trade.Counter(counterparty.ID, "", now) },
		func() (*domain.StatusChange, error) { return trade.Accept(initiator.ID, now) },
		func() (*domain.StatusChange, error) { return trade.Accept(counterparty.ID, now) },
		func() (*domain.StatusChange, error) {
			return trade.DeployEscrow(initiator.ID, escrowAddress, txHash, now)
		},
		func() (*domain.StatusChange, error) { return trade.Cancel(initiator.ID, "", now) },
		func() (*domain.StatusChange, error) {
			return trade.RecordDeposit(initiator.ID, domain.DepositProof{NftIDs: []string{"nft-1"}}, txHash, now)
		},
		func() (*domain.StatusChange, error) {
			return trade.RecordDeposit(counterparty.ID, domain.DepositProof{
				TokenAmounts: map[string]decimal.Decimal{tokenAddress: decimal.NewFromInt(10)},
			}, txHash, now)
		},
		func() (*domain.StatusChange, error) { return trade.Accept(counterparty.ID, now) },
		func() (*domain.StatusChange, error) { return trade.Finalize(initiator.ID, txHash, now) },
		func() (*domain.StatusChange, error) { return trade.Cancel(initiator.ID, "", now) },
	}

	for _, step := range steps {
		//nolint
		step()
		require.True(t, trade.Status.IsValid())
		require.GreaterOrEqual(t, trade.Status.Rank(), rank)
		rank = trade.Status.Rank()
	}
	require.Equal(t, domain.TradeStatusFinalized, trade.Status)
}

func TestParseTradeStatus(t *testing.T) {
	status, err := domain.ParseTradeStatus(" escrow_deployed ")
	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusEscrowDeployed, status)

	_, err = domain.ParseTradeStatus("SETTLED")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func newPendingTrade(t *testing.T) *domain.Trade {
	trade, _, err := domain.NewTrade(
		initiator, counterparty,
		[]domain.TradeItem{{NftID: "nft-1", EstimatedValue: decimal.NewFromInt(2)}},
		[]domain.TradeItem{{TokenAddress: tokenAddress, TokenAmount: decimal.NewFromInt(10)}},
		nil, now,
	)
	require.NoError(t, err)
	return trade
}

func newCounteredTrade(t *testing.T) *domain.Trade {
	trade := newPendingTrade(t)
	_, err := trade.Counter(counterparty.ID, "", now)
	require.NoError(t, err)
	return trade
}

func newAgreedTrade(t *testing.T) *domain.Trade {
	trade := newPendingTrade(t)
	_, err := trade.Accept(counterparty.ID, now)
	require.NoError(t, err)
	return trade
}

func newEscrowDeployedTrade(t *testing.T) *domain.Trade {
	trade := newAgreedTrade(t)
	_, err := trade.DeployEscrow(initiator.ID, escrowAddress, txHash, now)
	require.NoError(t, err)
	return trade
}

func newDepositedTrade(t *testing.T) *domain.Trade {
	trade := newEscrowDeployedTrade(t)
	_, err := trade.RecordDeposit(initiator.ID, domain.DepositProof{
		NftIDs: []string{"nft-1"},
	}, txHash, now)
	require.NoError(t, err)
	_, err = trade.RecordDeposit(counterparty.ID, domain.DepositProof{
		TokenAmounts: map[string]decimal.Decimal{tokenAddress: decimal.NewFromInt(10)},
	}, txHash, now)
	require.NoError(t, err)
	return trade
}
