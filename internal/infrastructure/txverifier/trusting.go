package txverifier

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
)

type trustingVerifier struct{}

// NewTrustingVerifier returns a TxVerifier that accepts every well-formed
// transaction hash without looking at the chain.
func NewTrustingVerifier() ports.TxVerifier {
	return trustingVerifier{}
}

func (trustingVerifier) VerifyTx(
	_ context.Context, txHash string, _ ports.TxEffect,
) (bool, error) {
	return domain.IsValidTxHash(txHash), nil
}
