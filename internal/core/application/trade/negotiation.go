package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// CreateTrade opens a new Pending trade proposed by the initiator.
func (s *Service) CreateTrade(
	ctx context.Context, args CreateTradeArgs,
) (*TradeInfo, error) {
	initiator, err := s.resolveParty(ctx, "initiator", args.InitiatorAddress)
	if err != nil {
		return nil, err
	}
	counterparty, err := s.resolveParty(ctx, "counterparty", args.CounterpartyAddress)
	if err != nil {
		return nil, err
	}

	trade, change, err := domain.NewTrade(
		initiator, counterparty, args.InitiatorItems, args.CounterpartyItems,
		args.Metadata, s.now(),
	)
	if err != nil {
		return nil, err
	}

	if _, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			if err := s.repoManager.TradeRepository().AddTrade(ctx, trade); err != nil {
				return nil, err
			}
			if _, _, err := s.recorder.Append(
				ctx, trade.ID, initiator.ID, *change,
			); err != nil {
				return nil, err
			}
			return nil, nil
		},
	); err != nil {
		return nil, err
	}

	log.Infof(
		"trade %s created by %s for %s", trade.ID,
		trade.InitiatorAddress, trade.CounterpartyAddress,
	)

	s.notifyTransition(trade, *change, initiator.ID)
	return newTradeInfo(trade), nil
}

// CounterTrade lets the counterparty answer a Pending offer with a counter
// proposal, described by the note.
func (s *Service) CounterTrade(
	ctx context.Context, tradeID, callerAddress, note string,
) (*TradeInfo, error) {
	return s.applyTransition(ctx, tradeID, callerAddress, "",
		func(t *domain.Trade, callerID string, now time.Time) (*domain.StatusChange, error) {
			return t.Counter(callerID, note, now)
		}, nil,
	)
}

// AcceptTrade agrees on the terms of a Pending or Countered trade.
func (s *Service) AcceptTrade(
	ctx context.Context, tradeID, callerAddress string,
) (*TradeInfo, error) {
	return s.applyTransition(ctx, tradeID, callerAddress, "",
		func(t *domain.Trade, callerID string, now time.Time) (*domain.StatusChange, error) {
			return t.Accept(callerID, now)
		}, nil,
	)
}

// DeclineCounter rejects a counter proposal, leaving the original offer open.
func (s *Service) DeclineCounter(
	ctx context.Context, tradeID, callerAddress, reason string,
) (*TradeInfo, error) {
	return s.applyTransition(ctx, tradeID, callerAddress, "",
		func(t *domain.Trade, callerID string, now time.Time) (*domain.StatusChange, error) {
			return t.DeclineCounter(callerID, reason, now)
		}, nil,
	)
}

// CancelTrade withdraws from a trade that has no escrow deployed yet.
func (s *Service) CancelTrade(
	ctx context.Context, tradeID, callerAddress, reason string,
) (*TradeInfo, error) {
	return s.applyTransition(ctx, tradeID, callerAddress, "",
		func(t *domain.Trade, callerID string, now time.Time) (*domain.StatusChange, error) {
			return t.Cancel(callerID, reason, now)
		}, nil,
	)
}

func (s *Service) resolveParty(
	ctx context.Context, role, address string,
) (*domain.User, error) {
	user, err := s.identity.ResolveOrRegister(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			return nil, fmt.Errorf(
				"%w: %s %s can't be resolved", domain.ErrValidation, role, address,
			)
		}
		return nil, err
	}
	return user, nil
}
