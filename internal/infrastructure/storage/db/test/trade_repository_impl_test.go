package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestTradeRepositoryImplementations(t *testing.T) {
	repositories := createRepoManagers(t)

	for i := range repositories {
		repo := repositories[i]

		t.Run(repo.Name, func(t *testing.T) {
			t.Run("testAddAndGetTrade", func(t *testing.T) {
				testAddAndGetTrade(t, repo)
			})

			t.Run("testUpdateTrade", func(t *testing.T) {
				testUpdateTrade(t, repo)
			})

			t.Run("testUpdateTrade_rollback", func(t *testing.T) {
				testUpdateTradeRollback(t, repo)
			})

			t.Run("testUpdateTrade_concurrent", func(t *testing.T) {
				testUpdateTradeConcurrent(t, repo)
			})

			t.Run("testGetTradesForUser", func(t *testing.T) {
				testGetTradesForUser(t, repo)
			})

			t.Run("testGetTradesBetweenUsers", func(t *testing.T) {
				testGetTradesBetweenUsers(t, repo)
			})

			t.Run("testGetTradesNotUpdatedSince", func(t *testing.T) {
				testGetTradesNotUpdatedSince(t, repo)
			})
		})
	}
}

func testAddAndGetTrade(t *testing.T, repo repoManager) {
	ctx := context.Background()
	trade := makeRandomTrade(makeRandomUser(), makeRandomUser(), testTime())

	err := repo.TradeRepository().AddTrade(ctx, trade)
	require.NoError(t, err)

	got, err := repo.TradeRepository().GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	requireSameTrade(t, trade, got)

	got, err = repo.TradeRepository().GetTrade(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrTradeNotFound)
	require.Nil(t, got)
}

func testUpdateTrade(t *testing.T, repo repoManager) {
	ctx := context.Background()
	trade := makeRandomTrade(makeRandomUser(), makeRandomUser(), testTime())
	require.NoError(t, repo.TradeRepository().AddTrade(ctx, trade))

	acceptedAt := testTime().Add(time.Minute)
	_, err := repo.write(func(ctx context.Context) (interface{}, error) {
		return nil, repo.TradeRepository().UpdateTrade(
			ctx, trade.ID, func(t *domain.Trade) (*domain.Trade, error) {
				if _, err := t.Accept(t.CounterpartyID, acceptedAt); err != nil {
					return nil, err
				}
				return t, nil
			},
		)
	})
	require.NoError(t, err)

	got, err := repo.TradeRepository().GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusAgreed, got.Status)
	require.True(t, acceptedAt.Equal(got.UpdatedAt))
	require.True(t, trade.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Items, len(trade.Items))

	err = repo.TradeRepository().UpdateTrade(
		ctx, "unknown", func(t *domain.Trade) (*domain.Trade, error) {
			return t, nil
		},
	)
	require.ErrorIs(t, err, domain.ErrTradeNotFound)
}

func testUpdateTradeRollback(t *testing.T, repo repoManager) {
	ctx := context.Background()
	trade := makeRandomTrade(makeRandomUser(), makeRandomUser(), testTime())
	require.NoError(t, repo.TradeRepository().AddTrade(ctx, trade))

	errAbort := errors.New("abort")
	_, err := repo.write(func(ctx context.Context) (interface{}, error) {
		if err := repo.TradeRepository().UpdateTrade(
			ctx, trade.ID, func(t *domain.Trade) (*domain.Trade, error) {
				if _, err := t.Cancel(t.InitiatorID, "", testTime()); err != nil {
					return nil, err
				}
				return t, nil
			},
		); err != nil {
			return nil, err
		}

		change := domain.StatusChange{
			Action:    domain.TradeActionCancelled,
			OldStatus: domain.TradeStatusPending,
			NewStatus: domain.TradeStatusCancelled,
			Metadata:  domain.CancelledMeta{},
			At:        testTime(),
		}
		entry := domain.NewTradeHistory(trade.ID, trade.InitiatorID, change)
		if err := repo.HistoryRepository().AddHistory(ctx, entry); err != nil {
			return nil, err
		}
		return nil, errAbort
	})
	require.ErrorIs(t, err, errAbort)

	got, err := repo.TradeRepository().GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusPending, got.Status)

	history, err := repo.HistoryRepository().GetHistoryForTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Empty(t, history)
}

func testUpdateTradeConcurrent(t *testing.T, repo repoManager) {
	ctx := context.Background()
	trade := makeRandomTrade(makeRandomUser(), makeRandomUser(), testTime())
	require.NoError(t, repo.TradeRepository().AddTrade(ctx, trade))

	const attempts = 5
	errs := make([]error, attempts)
	wg := &sync.WaitGroup{}
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.write(func(ctx context.Context) (interface{}, error) {
				return nil, repo.TradeRepository().UpdateTrade(
					ctx, trade.ID, func(t *domain.Trade) (*domain.Trade, error) {
						if _, err := t.Accept(t.CounterpartyID, testTime()); err != nil {
							return nil, err
						}
						return t, nil
					},
				)
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	}
	require.Equal(t, 1, succeeded)
}

func testGetTradesForUser(t *testing.T, repo repoManager) {
	ctx := context.Background()
	user, other := makeRandomUser(), makeRandomUser()
	start := testTime()

	trades := []*domain.Trade{
		makeRandomTrade(user, other, start),
		makeRandomTrade(other, user, start.Add(time.Minute)),
		makeRandomTrade(user, makeRandomUser(), start.Add(2*time.Minute)),
		makeRandomTrade(makeRandomUser(), other, start.Add(3*time.Minute)),
	}
	for _, tr := range trades {
		require.NoError(t, repo.TradeRepository().AddTrade(ctx, tr))
	}
	_, err := repo.write(func(ctx context.Context) (interface{}, error) {
		return nil, repo.TradeRepository().UpdateTrade(
			ctx, trades[1].ID, func(t *domain.Trade) (*domain.Trade, error) {
				_, err := t.Cancel(user.ID, "", start.Add(time.Hour))
				return t, err
			},
		)
	})
	require.NoError(t, err)

	got, total, err := repo.TradeRepository().GetTradesForUser(
		ctx, user.ID, domain.TradeFilter{}, domain.NewPage(1, 2),
	)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, got, 2)
	require.Equal(t, trades[2].ID, got[0].ID)
	require.Equal(t, trades[1].ID, got[1].ID)

	got, total, err = repo.TradeRepository().GetTradesForUser(
		ctx, user.ID, domain.TradeFilter{}, domain.NewPage(2, 2),
	)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, got, 1)
	require.Equal(t, trades[0].ID, got[0].ID)

	got, total, err = repo.TradeRepository().GetTradesForUser(
		ctx, user.ID, domain.TradeFilter{Status: domain.TradeStatusPending},
		domain.NewPage(1, 10),
	)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, got, 2)
	for _, tr := range got {
		require.Equal(t, domain.TradeStatusPending, tr.Status)
	}

	// other is initiator of one trade and counterparty of two.
	got, total, err = repo.TradeRepository().GetTradesForUser(
		ctx, other.ID, domain.TradeFilter{}, domain.NewPage(1, 10),
	)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, got, 3)
	require.Equal(t, trades[3].ID, got[0].ID)
	require.Equal(t, trades[1].ID, got[1].ID)
	require.Equal(t, trades[0].ID, got[2].ID)

	got, total, err = repo.TradeRepository().GetTradesForUser(
		ctx, other.ID, domain.TradeFilter{Status: domain.TradeStatusCancelled},
		domain.NewPage(1, 10),
	)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, got, 1)
	require.Equal(t, trades[1].ID, got[0].ID)

	got, total, err = repo.TradeRepository().GetTradesForUser(
		ctx, makeRandomUser().ID, domain.TradeFilter{}, domain.NewPage(1, 10),
	)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, got)
}

func testGetTradesBetweenUsers(t *testing.T, repo repoManager) {
	ctx := context.Background()
	user, partner := makeRandomUser(), makeRandomUser()
	start := testTime()

	trades := []*domain.Trade{
		makeRandomTrade(partner, user, start.Add(time.Minute)),
		makeRandomTrade(user, partner, start),
		makeRandomTrade(user, makeRandomUser(), start),
	}
	for _, tr := range trades {
		require.NoError(t, repo.TradeRepository().AddTrade(ctx, tr))
	}

	got, err := repo.TradeRepository().GetTradesBetweenUsers(ctx, user.ID, partner.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, trades[1].ID, got[0].ID)
	require.Equal(t, trades[0].ID, got[1].ID)

	got, err = repo.TradeRepository().GetTradesBetweenUsers(ctx, partner.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func testGetTradesNotUpdatedSince(t *testing.T, repo repoManager) {
	ctx := context.Background()
	user := makeRandomUser()
	// Far in the past so that trades of other tests don't interfere.
	start := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

	stale := makeRandomTrade(user, makeRandomUser(), start)
	onTheEdge := makeRandomTrade(user, makeRandomUser(), start.Add(time.Hour))
	fresh := makeRandomTrade(user, makeRandomUser(), start.Add(2*time.Hour))
	agreed := makeRandomTrade(user, makeRandomUser(), start)
	for _, tr := range []*domain.Trade{stale, onTheEdge, fresh, agreed} {
		require.NoError(t, repo.TradeRepository().AddTrade(ctx, tr))
	}
	_, err := repo.write(func(ctx context.Context) (interface{}, error) {
		return nil, repo.TradeRepository().UpdateTrade(
			ctx, agreed.ID, func(t *domain.Trade) (*domain.Trade, error) {
				_, err := t.Accept(t.CounterpartyID, start)
				return t, err
			},
		)
	})
	require.NoError(t, err)

	got, err := repo.TradeRepository().GetTradesNotUpdatedSince(
		ctx, domain.NegotiatingTradeStatuses, start.Add(time.Hour),
	)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, tr := range got {
		ids = append(ids, tr.ID)
	}
	require.Equal(t, []string{stale.ID, onTheEdge.ID}, ids)
}

func requireSameTrade(t *testing.T, expected, got *domain.Trade) {
	require.Equal(t, expected.ID, got.ID)
	require.Equal(t, expected.InitiatorID, got.InitiatorID)
	require.Equal(t, expected.InitiatorAddress, got.InitiatorAddress)
	require.Equal(t, expected.CounterpartyID, got.CounterpartyID)
	require.Equal(t, expected.CounterpartyAddress, got.CounterpartyAddress)
	require.Equal(t, expected.Status, got.Status)
	require.Equal(t, expected.Metadata, got.Metadata)
	require.True(t, expected.CreatedAt.Equal(got.CreatedAt))
	require.True(t, expected.UpdatedAt.Equal(got.UpdatedAt))
	require.Len(t, got.Items, len(expected.Items))
	for i, it := range expected.Items {
		gotItem := got.Items[i]
		require.Equal(t, it.ID, gotItem.ID)
		require.Equal(t, it.Side, gotItem.Side)
		require.Equal(t, it.NftID, gotItem.NftID)
		require.Equal(t, it.TokenAddress, gotItem.TokenAddress)
		require.True(t, it.TokenAmount.Equal(gotItem.TokenAmount))
		require.True(t, it.EstimatedValue.Equal(gotItem.EstimatedValue))
	}
	require.InDelta(t, expected.Fairness(), got.Fairness(), 1e-9)
}
