package conversation

import (
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
)

// EntryType is the kind of a timeline entry.
type EntryType string

const (
	EntryTradeCreated EntryType = "trade_created"
	EntryMessage      EntryType = "message"
	EntryTradeEvent   EntryType = "trade_event"
)

// Entry is one item of a conversation timeline. Depending on the type, only
// one of Trade, Message or Event is set.
type Entry struct {
	Type      EntryType
	TradeID   string
	Timestamp time.Time
	Trade     *domain.Trade
	Message   *domain.TradeMessage
	Event     *domain.TradeHistory
}

// Stats summarize the trades between two users.
type Stats struct {
	TotalTrades     int
	ActiveTrades    int
	FinalizedTrades int
}

type Conversation struct {
	User       domain.User
	Partner    domain.User
	Timeline   []Entry
	Stats      Stats
	Pagination domain.Pagination
}
