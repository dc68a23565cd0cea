package db_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	"github.com/nftswap/swapd/internal/infrastructure/storage/db/dbtest"
	"github.com/shopspring/decimal"
)

type repoManager struct {
	Name string
	ports.RepoManager
}

func (r repoManager) read(
	query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return r.RunTransaction(context.Background(), true, query)
}

func (r repoManager) write(
	query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return r.RunTransaction(context.Background(), false, query)
}

func createRepoManagers(t *testing.T) []repoManager {
	t.Helper()

	stores := dbtest.Stores()
	repositories := make([]repoManager, 0, len(stores))
	for _, store := range stores {
		repositories = append(repositories, repoManager{store.Name, store.New(t)})
	}
	return repositories
}

func makeRandomUser() *domain.User {
	user, _ := domain.NewUser(randomAddress(), testTime())
	return user
}

func makeRandomTrade(initiator, counterparty *domain.User, createdAt time.Time) *domain.Trade {
	trade, _, _ := domain.NewTrade(
		initiator, counterparty,
		[]domain.TradeItem{
			{NftID: randomHex(8), EstimatedValue: decimal.NewFromInt(100)},
		},
		[]domain.TradeItem{
			{NftID: randomHex(8), EstimatedValue: decimal.NewFromInt(80)},
			{
				TokenAddress: randomAddress(),
				TokenAmount:  decimal.RequireFromString("12.5"),
			},
		},
		map[string]string{"source": "test"}, createdAt,
	)
	return trade
}

func randomAddress() string {
	return "0x" + randomHex(20)
}

func randomTxHash() string {
	return "0x" + randomHex(32)
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

// testTime returns the current time with the precision every store keeps.
func testTime() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
