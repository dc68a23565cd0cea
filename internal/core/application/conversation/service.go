package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLoads caps the number of trades whose messages and history
// are loaded in parallel.
const maxConcurrentLoads = 8

// Service merges the chat and the lifecycle of all the trades between two
// users into a single timeline. Every call recomputes the projection from the
// store.
type Service struct {
	repoManager ports.RepoManager
	identity    ports.IdentityResolver
}

func NewService(
	repoManager ports.RepoManager, identity ports.IdentityResolver,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if identity == nil {
		return nil, fmt.Errorf("missing identity resolver")
	}
	return &Service{repoManager, identity}, nil
}

// GetConversation returns the requested page of the timeline between the
// user and the partner, sorted by time ascending, along with stats about
// their trades.
func (s *Service) GetConversation(
	ctx context.Context, userAddress, partnerAddress string, page domain.Page,
) (*Conversation, error) {
	user, err := s.identity.Resolve(ctx, userAddress)
	if err != nil {
		return nil, err
	}
	partner, err := s.identity.Resolve(ctx, partnerAddress)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrPartnerNotFound
		}
		return nil, err
	}
	if user.ID == partner.ID {
		return nil, domain.ErrSelfTrade
	}

	trades, err := s.repoManager.TradeRepository().GetTradesBetweenUsers(
		ctx, user.ID, partner.ID,
	)
	if err != nil {
		return nil, err
	}

	perTrade, err := s.loadTimelines(ctx, trades)
	if err != nil {
		return nil, err
	}

	timeline := lo.Flatten(perTrade)
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})

	start, end := page.Bounds(len(timeline))
	return &Conversation{
		User:       *user,
		Partner:    *partner,
		Timeline:   timeline[start:end],
		Stats:      newStats(trades),
		Pagination: domain.NewPagination(page, len(timeline)),
	}, nil
}

// loadTimelines builds the entries of every trade concurrently, keeping the
// order of the given trades.
func (s *Service) loadTimelines(
	ctx context.Context, trades []*domain.Trade,
) ([][]Entry, error) {
	perTrade := make([][]Entry, len(trades))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentLoads)
	for i := range trades {
		i, trade := i, trades[i]
		eg.Go(func() error {
			entries, err := s.tradeTimeline(ctx, trade)
			if err != nil {
				return err
			}
			perTrade[i] = entries
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return perTrade, nil
}

func (s *Service) tradeTimeline(
	ctx context.Context, trade *domain.Trade,
) ([]Entry, error) {
	messages, err := s.repoManager.MessageRepository().GetMessagesForTrade(
		ctx, trade.ID,
	)
	if err != nil {
		return nil, err
	}
	history, err := s.repoManager.HistoryRepository().GetHistoryForTrade(
		ctx, trade.ID,
	)
	if err != nil {
		return nil, err
	}

	// The creation is already represented by the trade_created entry.
	history = lo.Filter(history, func(h *domain.TradeHistory, _ int) bool {
		return h.Action != domain.TradeActionCreated
	})

	entries := make([]Entry, 0, 1+len(messages)+len(history))
	entries = append(entries, Entry{
		Type:      EntryTradeCreated,
		TradeID:   trade.ID,
		Timestamp: trade.CreatedAt,
		Trade:     trade,
	})
	// Every stored message is an entry of its own, SYSTEM ones included. The
	// one mirroring the creation stays next to trade_created.
	for _, m := range messages {
		entries = append(entries, Entry{
			Type:      EntryMessage,
			TradeID:   trade.ID,
			Timestamp: m.CreatedAt,
			Message:   m,
		})
	}
	for _, h := range history {
		entries = append(entries, Entry{
			Type:      EntryTradeEvent,
			TradeID:   trade.ID,
			Timestamp: h.CreatedAt,
			Event:     h,
		})
	}
	return entries, nil
}

func newStats(trades []*domain.Trade) Stats {
	return Stats{
		TotalTrades: len(trades),
		ActiveTrades: lo.CountBy(trades, func(t *domain.Trade) bool {
			return t.Status.IsActive()
		}),
		FinalizedTrades: lo.CountBy(trades, func(t *domain.Trade) bool {
			return t.Status == domain.TradeStatusFinalized
		}),
	}
}
