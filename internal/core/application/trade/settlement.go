package trade

import (
	"context"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
)

// DeployEscrow records the escrow contract deployed by the initiator for an
// Agreed trade.
func (s *Service) DeployEscrow(
	ctx context.Context, tradeID, callerAddress, escrowAddress, txHash string,
) (*TradeInfo, error) {
	return s.applyTransition(ctx, tradeID, callerAddress, txHash,
		func(t *domain.Trade, callerID string, now time.Time) (*domain.StatusChange, error) {
			return t.DeployEscrow(callerID, escrowAddress, txHash, now)
		},
		func(t *domain.Trade, _ string) ports.TxEffect {
			// The snapshot went through the transition, so the escrow address
			// is already normalized.
			return ports.TxEffect{
				Kind:          ports.TxEffectEscrowDeployment,
				TradeID:       t.ID,
				EscrowAddress: t.EscrowAddress,
			}
		},
	)
}

// RecordDeposit records the deposit of the caller's side into the escrow.
// The trade becomes Deposited once both sides are complete.
func (s *Service) RecordDeposit(
	ctx context.Context, tradeID, callerAddress string,
	proof domain.DepositProof, txHash string,
) (*TradeInfo, error) {
	return s.applyTransition(ctx, tradeID, callerAddress, txHash,
		func(t *domain.Trade, callerID string, now time.Time) (*domain.StatusChange, error) {
			return t.RecordDeposit(callerID, proof, txHash, now)
		},
		func(t *domain.Trade, callerID string) ports.TxEffect {
			side, _ := t.SideOf(callerID)
			return ports.TxEffect{
				Kind:          ports.TxEffectDeposit,
				TradeID:       t.ID,
				EscrowAddress: t.EscrowAddress,
				Side:          side,
			}
		},
	)
}

// FinalizeTrade records the release of the escrow of a Deposited trade.
func (s *Service) FinalizeTrade(
	ctx context.Context, tradeID, callerAddress, txHash string,
) (*TradeInfo, error) {
	return s.applyTransition(ctx, tradeID, callerAddress, txHash,
		func(t *domain.Trade, callerID string, now time.Time) (*domain.StatusChange, error) {
			return t.Finalize(callerID, txHash, now)
		},
		func(t *domain.Trade, _ string) ports.TxEffect {
			return ports.TxEffect{
				Kind:          ports.TxEffectFinalization,
				TradeID:       t.ID,
				EscrowAddress: t.EscrowAddress,
			}
		},
	)
}
