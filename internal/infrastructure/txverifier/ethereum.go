package txverifier

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Same signature for ERC-20 and ERC-721 transfers.
var transferEventSignature = gethcrypto.Keccak256Hash(
	[]byte("Transfer(address,address,uint256)"),
)

// ethClient is the subset of the Ethereum RPC used by the verifier.
type ethClient interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
}

type ethereumVerifier struct {
	client           ethClient
	minConfirmations uint64
}

// NewEthereumVerifier dials the given node and returns a TxVerifier that
// checks receipts against the escrow contract of the trade.
func NewEthereumVerifier(
	rpcURL string, minConfirmations uint64,
) (ports.TxVerifier, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return nil, fmt.Errorf("missing ethereum rpc url")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum node: %w", err)
	}
	return newEthereumVerifier(client, minConfirmations), nil
}

func newEthereumVerifier(client ethClient, minConfirmations uint64) *ethereumVerifier {
	return &ethereumVerifier{client, minConfirmations}
}

func (v *ethereumVerifier) VerifyTx(
	ctx context.Context, txHash string, effect ports.TxEffect,
) (bool, error) {
	if !domain.IsValidTxHash(txHash) {
		return false, nil
	}
	if !common.IsHexAddress(effect.EscrowAddress) {
		return false, fmt.Errorf("invalid escrow address %q", effect.EscrowAddress)
	}
	escrow := common.HexToAddress(effect.EscrowAddress)

	receipt, err := v.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			log.Debugf("transaction %s not found", txHash)
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch receipt: %w", err)
	}
	if receipt == nil || receipt.Status != gethtypes.ReceiptStatusSuccessful {
		log.Debugf("transaction %s did not succeed", txHash)
		return false, nil
	}

	confirmed, err := v.hasEnoughConfirmations(ctx, receipt)
	if err != nil || !confirmed {
		return false, err
	}

	switch effect.Kind {
	case ports.TxEffectEscrowDeployment:
		return receipt.ContractAddress == escrow || emittedBy(receipt, escrow), nil
	case ports.TxEffectDeposit:
		return emittedBy(receipt, escrow) || transfersTo(receipt, escrow), nil
	case ports.TxEffectFinalization:
		return emittedBy(receipt, escrow) || transfersFrom(receipt, escrow), nil
	default:
		return false, fmt.Errorf("unknown tx effect %s", effect.Kind)
	}
}

func (v *ethereumVerifier) hasEnoughConfirmations(
	ctx context.Context, receipt *gethtypes.Receipt,
) (bool, error) {
	if v.minConfirmations <= 0 {
		return true, nil
	}

	header, err := v.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to fetch chain tip: %w", err)
	}
	if header == nil || header.Number == nil || receipt.BlockNumber == nil {
		return false, fmt.Errorf("block metadata unavailable")
	}
	if header.Number.Cmp(receipt.BlockNumber) < 0 {
		return false, nil
	}

	confirmations := new(big.Int).Sub(header.Number, receipt.BlockNumber)
	confirmations.Add(confirmations, big.NewInt(1))
	return confirmations.Cmp(new(big.Int).SetUint64(v.minConfirmations)) >= 0, nil
}

func emittedBy(receipt *gethtypes.Receipt, address common.Address) bool {
	for _, l := range receipt.Logs {
		if l != nil && l.Address == address {
			return true
		}
	}
	return false
}

func transfersTo(receipt *gethtypes.Receipt, address common.Address) bool {
	return hasTransfer(receipt, 2, address)
}

func transfersFrom(receipt *gethtypes.Receipt, address common.Address) bool {
	return hasTransfer(receipt, 1, address)
}

// hasTransfer returns whether the receipt contains a Transfer event whose
// indexed topic at the given position is the address.
func hasTransfer(receipt *gethtypes.Receipt, topic int, address common.Address) bool {
	for _, l := range receipt.Logs {
		if l == nil || len(l.Topics) <= topic {
			continue
		}
		if l.Topics[0] != transferEventSignature {
			continue
		}
		if common.BytesToAddress(l.Topics[topic].Bytes()) == address {
			return true
		}
	}
	return false
}
