package trade

import "github.com/nftswap/swapd/internal/core/domain"

// CreateTradeArgs are the arguments of CreateTrade. Items don't need ids nor
// sides, they are assigned by the trade.
type CreateTradeArgs struct {
	InitiatorAddress    string
	CounterpartyAddress string
	InitiatorItems      []domain.TradeItem
	CounterpartyItems   []domain.TradeItem
	Metadata            map[string]string
}

// TradeInfo is a trade along with its fairness score, derived on read.
type TradeInfo struct {
	domain.Trade
	Fairness float64
}

func newTradeInfo(trade *domain.Trade) *TradeInfo {
	return &TradeInfo{*trade, trade.Fairness()}
}

// TradeList is a page of trades.
type TradeList struct {
	Trades     []TradeInfo
	Pagination domain.Pagination
}
