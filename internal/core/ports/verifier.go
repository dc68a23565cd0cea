package ports

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
)

// TxEffectKind is what a reported transaction is expected to have done.
type TxEffectKind string

const (
	TxEffectEscrowDeployment TxEffectKind = "ESCROW_DEPLOYMENT"
	TxEffectDeposit          TxEffectKind = "DEPOSIT"
	TxEffectFinalization     TxEffectKind = "FINALIZATION"
)

// TxEffect describes the expected outcome of a transaction.
type TxEffect struct {
	Kind          TxEffectKind
	TradeID       string
	EscrowAddress string
	// Side is set for deposits only.
	Side domain.Side
}

// TxVerifier confirms that a transaction reported by a caller produced the
// expected effect on chain. A false result without error means the
// transaction doesn't prove the effect.
type TxVerifier interface {
	VerifyTx(ctx context.Context, txHash string, effect TxEffect) (bool, error)
}
