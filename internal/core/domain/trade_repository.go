package domain

import (
	"context"
	"time"
)

// TradeRepository is the abstraction for any kind of database intended to
// persist Trades along with their items.
type TradeRepository interface {
	// AddTrade stores a new trade with its items.
	AddTrade(ctx context.Context, trade *Trade) error
	// GetTrade returns the trade with the given id or ErrTradeNotFound.
	GetTrade(ctx context.Context, tradeID string) (*Trade, error)
	// UpdateTrade allows to commit multiple changes to the same trade in a
	// transactional way.
	UpdateTrade(
		ctx context.Context,
		tradeID string,
		updateFn func(t *Trade) (*Trade, error),
	) error
	// GetTradesForUser returns the page of trades where the given user is
	// either the initiator or the counterparty, newest first, along with the
	// total number of trades matching the filter.
	GetTradesForUser(
		ctx context.Context, userID string, filter TradeFilter, page Page,
	) ([]*Trade, int, error)
	// GetTradesBetweenUsers returns all the trades between the two users, in
	// any role, oldest first.
	GetTradesBetweenUsers(ctx context.Context, userID, partnerID string) ([]*Trade, error)
	// GetTradesNotUpdatedSince returns the trades in one of the given statuses
	// whose last update happened at or before the given time.
	GetTradesNotUpdatedSince(
		ctx context.Context, statuses []TradeStatus, since time.Time,
	) ([]*Trade, error)
}

// TradeHistoryRepository persists the append-only audit log of trades.
type TradeHistoryRepository interface {
	// AddHistory appends an entry and assigns its sequence number.
	AddHistory(ctx context.Context, history *TradeHistory) error
	// GetHistoryForTrade returns the entries of a trade ordered by creation
	// time and sequence.
	GetHistoryForTrade(ctx context.Context, tradeID string) ([]*TradeHistory, error)
}

// TradeMessageRepository persists the chat messages of trades.
type TradeMessageRepository interface {
	// AddMessage appends a message and assigns its sequence number.
	AddMessage(ctx context.Context, message *TradeMessage) error
	// GetMessagesForTrade returns the messages of a trade ordered by creation
	// time and sequence.
	GetMessagesForTrade(ctx context.Context, tradeID string) ([]*TradeMessage, error)
}

// UserRepository persists the identities behind wallet addresses.
type UserRepository interface {
	// AddUser stores a new user or returns ErrUserAlreadyExists if the address
	// is already registered.
	AddUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, userID string) (*User, error)
	// GetUserByAddress expects a normalized address.
	GetUserByAddress(ctx context.Context, address string) (*User, error)
}
