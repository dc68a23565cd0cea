package ports

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
)

// IdentityResolver maps a wallet address to the user behind it.
type IdentityResolver interface {
	// Resolve returns domain.ErrUserNotFound if the address is unknown and
	// domain.ErrInvalidAddress if it's malformed.
	Resolve(ctx context.Context, address string) (*domain.User, error)
	// ResolveOrRegister behaves like Resolve but registers unknown addresses
	// if the resolver is allowed to.
	ResolveOrRegister(ctx context.Context, address string) (*domain.User, error)
}
