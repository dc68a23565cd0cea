package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/nftswap/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type resolver struct {
	repoManager  ports.RepoManager
	autoRegister bool
	nowFn        func() time.Time
}

// NewResolver returns an IdentityResolver backed by the user repository. If
// autoRegister is set, unknown addresses are registered on first use.
func NewResolver(
	repoManager ports.RepoManager, autoRegister bool,
) (ports.IdentityResolver, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	return &resolver{repoManager, autoRegister, time.Now}, nil
}

func (r *resolver) Resolve(ctx context.Context, address string) (*domain.User, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return r.repoManager.UserRepository().GetUserByAddress(ctx, addr)
}

func (r *resolver) ResolveOrRegister(
	ctx context.Context, address string,
) (*domain.User, error) {
	user, err := r.Resolve(ctx, address)
	if err == nil || !r.autoRegister || !errors.Is(err, domain.ErrUserNotFound) {
		return user, err
	}

	user, err = domain.NewUser(address, r.nowFn().UTC())
	if err != nil {
		return nil, err
	}
	if err := r.repoManager.UserRepository().AddUser(ctx, user); err != nil {
		// Registered concurrently by another request.
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return r.Resolve(ctx, address)
		}
		return nil, err
	}

	log.Debugf("registered user %s for address %s", user.ID, user.Address)
	return user, nil
}
