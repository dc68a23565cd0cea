package ports

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
)

// RepoManager interface defines the methods for trades, their history,
// messages and users.
type RepoManager interface {
	TradeRepository() domain.TradeRepository
	HistoryRepository() domain.TradeHistoryRepository
	MessageRepository() domain.TradeMessageRepository
	UserRepository() domain.UserRepository

	// RunTransaction runs the handler in a single store transaction. Any
	// error returned by the handler aborts the transaction, discarding every
	// write made through the repositories with the given context.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)

	Close()
}
