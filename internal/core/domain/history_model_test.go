package domain_test

import (
	"strings"
	"testing"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSystemMessageMirrorsHistory(t *testing.T) {
	trade := newEscrowDeployedTrade(t)
	change, err := trade.RecordDeposit(initiator.ID, domain.DepositProof{
		NftIDs: []string{"nft-1"},
	}, txHash, now)
	require.NoError(t, err)

	history := domain.NewTradeHistory(trade.ID, initiator.ID, *change)
	require.NotEmpty(t, history.ID)
	require.Equal(t, domain.TradeActionDepositRecorded, history.Action)
	require.Equal(t, domain.TradeStatusEscrowDeployed, history.OldStatus)
	require.Equal(t, domain.TradeStatusEscrowDeployed, history.NewStatus)

	msg := domain.NewSystemMessage(history)
	require.True(t, msg.IsSystem())
	require.Equal(t, history.ID, msg.HistoryID)
	require.Equal(t, history.Metadata, msg.Metadata)
	require.Equal(t, history.CreatedAt, msg.CreatedAt)
	require.Equal(t, "Initiator deposit recorded, waiting for the other side", msg.Message)
}

func TestNewTextMessage(t *testing.T) {
	msg, err := domain.NewTextMessage("trade", initiator.ID, "  hello there ", now)
	require.NoError(t, err)
	require.Equal(t, "hello there", msg.Message)
	require.Equal(t, domain.MessageTypeText, msg.Type)
	require.Nil(t, msg.Metadata)

	_, err = domain.NewTextMessage("trade", initiator.ID, "   ", now)
	require.ErrorIs(t, err, domain.ErrInvalidMessage)

	tooLong := strings.Repeat("x", domain.MaxMessageLength+1)
	_, err = domain.NewTextMessage("trade", initiator.ID, tooLong, now)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeTransitionMetadata(t *testing.T) {
	meta := domain.DepositMeta{
		Side:         domain.SideCounterparty,
		TokenAmounts: map[string]decimal.Decimal{tokenAddress: decimal.NewFromInt(10)},
		TxHash:       txHash,
		Complete:     true,
	}
	buf, err := domain.EncodeTransitionMetadata(meta)
	require.NoError(t, err)

	decoded, err := domain.DecodeTransitionMetadata(domain.TradeActionDeposited, buf)
	require.NoError(t, err)
	depositMeta, ok := decoded.(domain.DepositMeta)
	require.True(t, ok)
	require.Equal(t, meta.Side, depositMeta.Side)
	require.True(t, meta.TokenAmounts[tokenAddress].Equal(depositMeta.TokenAmounts[tokenAddress]))

	decoded, err = domain.DecodeTransitionMetadata(domain.TradeActionAgreed, nil)
	require.NoError(t, err)
	require.Nil(t, decoded)

	_, err = domain.DecodeTransitionMetadata("SETTLED", []byte("{}"))
	require.Error(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	addr, err := domain.NormalizeAddress(" 0xAbCdEf0123456789aBcDeF0123456789AbCdEf01 ")
	require.NoError(t, err)
	require.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", addr)

	for _, invalid := range []string{"", "abcdef0123456789abcdef0123456789abcdef01", "0x1234", "0xzz"} {
		_, err := domain.NormalizeAddress(invalid)
		require.ErrorIs(t, err, domain.ErrInvalidAddress)
	}
}

func TestNewPage(t *testing.T) {
	page := domain.NewPage(0, 0)
	require.Equal(t, domain.Page{Number: 1, Size: 10}, page)

	page = domain.NewPage(3, 1000)
	require.Equal(t, domain.MaxPageSize, page.Size)

	page = domain.NewPage(2, 5)
	start, end := page.Bounds(7)
	require.Equal(t, 5, start)
	require.Equal(t, 7, end)

	start, end = domain.NewPage(4, 5).Bounds(7)
	require.Equal(t, start, end)

	pagination := domain.NewPagination(domain.NewPage(1, 5), 11)
	require.Equal(t, 3, pagination.TotalPages)
}
