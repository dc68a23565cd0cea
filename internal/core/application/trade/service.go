package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nftswap/swapd/internal/core/application/history"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const defaultNotifyTimeout = 30 * time.Second

type Service struct {
	repoManager ports.RepoManager
	identity    ports.IdentityResolver
	verifier    ports.TxVerifier
	recorder    *history.Recorder
	notifiers   []ports.Notifier

	tradeTTL time.Duration
	nowFn    func() time.Time
}

func NewService(
	repoManager ports.RepoManager,
	identity ports.IdentityResolver,
	verifier ports.TxVerifier,
	notifiers []ports.Notifier,
	tradeTTL time.Duration,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if identity == nil {
		return nil, fmt.Errorf("missing identity resolver")
	}
	if verifier == nil {
		return nil, fmt.Errorf("missing tx verifier")
	}
	if tradeTTL < 0 {
		return nil, fmt.Errorf("trade ttl must not be negative")
	}
	recorder, err := history.NewRecorder(repoManager)
	if err != nil {
		return nil, err
	}

	return &Service{
		repoManager: repoManager,
		identity:    identity,
		verifier:    verifier,
		recorder:    recorder,
		notifiers:   notifiers,
		tradeTTL:    tradeTTL,
		nowFn:       time.Now,
	}, nil
}

// SetNowFunc overrides the clock of the service.
func (s *Service) SetNowFunc(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

func (s *Service) now() time.Time {
	return s.nowFn().UTC()
}

// resolveCaller returns the id of the user behind the given address or an
// empty string if the address is unknown or malformed. An empty id is never a
// party of any trade.
func (s *Service) resolveCaller(ctx context.Context, address string) (string, error) {
	user, err := s.identity.Resolve(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			return "", nil
		}
		return "", err
	}
	return user.ID, nil
}

type transitionFn func(
	trade *domain.Trade, callerID string, now time.Time,
) (*domain.StatusChange, error)

type effectFn func(trade *domain.Trade, callerID string) ports.TxEffect

// applyTransition runs the given transition in a single transaction: the
// trade is re-read, the transition checks its preconditions against the
// current status and, if it succeeds, the new status and the history are
// written together. If the transition reports a transaction, the trade is
// first checked against a snapshot, then the verifier is asked to confirm it
// before opening the transaction.
func (s *Service) applyTransition(
	ctx context.Context, tradeID, callerAddress, txHash string,
	transition transitionFn, effect effectFn,
) (*TradeInfo, error) {
	callerID, err := s.resolveCaller(ctx, callerAddress)
	if err != nil {
		return nil, err
	}

	if effect != nil {
		snapshot, err := s.repoManager.TradeRepository().GetTrade(ctx, tradeID)
		if err != nil {
			return nil, err
		}
		if _, err := transition(snapshot, callerID, s.now()); err != nil {
			return nil, err
		}
		if err := s.verifyTx(ctx, txHash, effect(snapshot, callerID)); err != nil {
			return nil, err
		}
	}

	var change *domain.StatusChange
	result, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			var updated *domain.Trade
			if err := s.repoManager.TradeRepository().UpdateTrade(
				ctx, tradeID, func(t *domain.Trade) (*domain.Trade, error) {
					c, err := transition(t, callerID, s.now())
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

			if _, _, err := s.recorder.Append(
				ctx, updated.ID, callerID, *change,
			); err != nil {
				return nil, err
			}
			return updated, nil
		},
	)
	if err != nil {
		return nil, err
	}

	trade := result.(*domain.Trade)
	log.WithFields(log.Fields{
		"trade":  trade.ID,
		"action": change.Action,
		"status": trade.Status,
	}).Info("trade updated")

	s.notifyTransition(trade, *change, callerID)
	return newTradeInfo(trade), nil
}

func (s *Service) verifyTx(
	ctx context.Context, txHash string, effect ports.TxEffect,
) error {
	ok, err := s.verifier.VerifyTx(ctx, txHash, effect)
	if err != nil {
		return fmt.Errorf("failed to verify transaction %s: %w", txHash, err)
	}
	if !ok {
		return fmt.Errorf(
			"%w: %s does not prove %s", domain.ErrTxNotVerified,
			txHash, effect.Kind,
		)
	}
	return nil
}

func (s *Service) getTradeForCaller(
	ctx context.Context, tradeID, callerAddress string,
) (*domain.Trade, string, error) {
	callerID, err := s.resolveCaller(ctx, callerAddress)
	if err != nil {
		return nil, "", err
	}
	trade, err := s.repoManager.TradeRepository().GetTrade(ctx, tradeID)
	if err != nil {
		return nil, "", err
	}
	if !trade.IsParty(callerID) {
		return nil, "", domain.ErrCallerNotParty
	}
	return trade, callerID, nil
}
