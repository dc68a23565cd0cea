package trade

import (
	"context"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// ExpireStaleTrades moves to Expired every negotiation untouched for longer
// than the configured time to live. Every trade expires in its own
// transaction, trades updated in the meantime are skipped. It returns the
// number of expired trades.
func (s *Service) ExpireStaleTrades(ctx context.Context) (int, error) {
	if s.tradeTTL <= 0 {
		return 0, nil
	}

	now := s.now()
	trades, err := s.repoManager.TradeRepository().GetTradesNotUpdatedSince(
		ctx, domain.NegotiatingTradeStatuses, now.Add(-s.tradeTTL),
	)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, t := range trades {
		info, err := s.expireTrade(ctx, t.ID, now)
		if err != nil {
			log.WithError(err).Debugf("skipped expiration of trade %s", t.ID)
			continue
		}
		if info != nil {
			count++
		}
	}
	if count > 0 {
		log.Infof("expired %d stale trade(s)", count)
	}
	return count, nil
}

func (s *Service) expireTrade(
	ctx context.Context, tradeID string, now time.Time,
) (*domain.Trade, error) {
	var change *domain.StatusChange
	result, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			var updated *domain.Trade
			if err := s.repoManager.TradeRepository().UpdateTrade(
				ctx, tradeID, func(t *domain.Trade) (*domain.Trade, error) {
					c, err := t.Expire(s.tradeTTL, now)
					if err != nil {
						return nil, err
					}
					change = c
					updated = t
					return t, nil
				},
			); err != nil {
				return nil, err
			}
			if _, _, err := s.recorder.Append(ctx, updated.ID, "", *change); err != nil {
				return nil, err
			}
			return updated, nil
		},
	)
	if err != nil {
		return nil, err
	}

	trade := result.(*domain.Trade)
	s.notifyTransition(trade, *change, "")
	return trade, nil
}
