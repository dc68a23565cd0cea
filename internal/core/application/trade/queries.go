package trade

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// GetTrade returns the trade with its fairness score. Only parties can read
// a trade.
func (s *Service) GetTrade(
	ctx context.Context, tradeID, callerAddress string,
) (*TradeInfo, error) {
	trade, _, err := s.getTradeForCaller(ctx, tradeID, callerAddress)
	if err != nil {
		return nil, err
	}
	return newTradeInfo(trade), nil
}

// GetTradeHistory returns the audit trail of a trade, oldest first.
func (s *Service) GetTradeHistory(
	ctx context.Context, tradeID, callerAddress string,
) ([]*domain.TradeHistory, error) {
	if _, _, err := s.getTradeForCaller(ctx, tradeID, callerAddress); err != nil {
		return nil, err
	}
	return s.repoManager.HistoryRepository().GetHistoryForTrade(ctx, tradeID)
}

// ListTrades returns the page of trades of the given address, newest first,
// optionally filtered by status.
func (s *Service) ListTrades(
	ctx context.Context, address, status string, page domain.Page,
) (*TradeList, error) {
	user, err := s.identity.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	filter := domain.TradeFilter{}
	if status != "" {
		st, err := domain.ParseTradeStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}

	trades, total, err := s.repoManager.TradeRepository().GetTradesForUser(
		ctx, user.ID, filter, page,
	)
	if err != nil {
		return nil, err
	}

	list := make([]TradeInfo, 0, len(trades))
	for _, t := range trades {
		list = append(list, *newTradeInfo(t))
	}
	return &TradeList{
		Trades:     list,
		Pagination: domain.NewPagination(page, total),
	}, nil
}

// PostMessage appends a chat message to the trade. Both parties can chat at
// any stage of the trade.
func (s *Service) PostMessage(
	ctx context.Context, tradeID, callerAddress, text string,
) (*domain.TradeMessage, error) {
	callerID, err := s.resolveCaller(ctx, callerAddress)
	if err != nil {
		return nil, err
	}

	var trade *domain.Trade
	result, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			t, err := s.repoManager.TradeRepository().GetTrade(ctx, tradeID)
			if err != nil {
				return nil, err
			}
			if !t.IsParty(callerID) {
				return nil, domain.ErrCallerNotParty
			}
			msg, err := domain.NewTextMessage(t.ID, callerID, text, s.now())
			if err != nil {
				return nil, err
			}
			if err := s.repoManager.MessageRepository().AddMessage(ctx, msg); err != nil {
				return nil, err
			}
			trade = t
			return msg, nil
		},
	)
	if err != nil {
		return nil, err
	}

	msg := result.(*domain.TradeMessage)
	log.Debugf("message %s posted on trade %s", msg.ID, tradeID)
	s.notifyMessage(trade, msg)
	return msg, nil
}
