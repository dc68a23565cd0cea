package inmemory

import (
	"context"

	"github.com/nftswap/swapd/internal/core/domain"
)

type userRepositoryImpl struct {
	db *RepoManager
}

// NewUserRepositoryImpl returns a new inmemory UserRepository implementation.
func NewUserRepositoryImpl(db *RepoManager) domain.UserRepository {
	return &userRepositoryImpl{db}
}

func (r *userRepositoryImpl) AddUser(ctx context.Context, user *domain.User) error {
	return r.db.write(ctx, func(data *memoryData) error {
		if _, ok := data.userIDsByAddress[user.Address]; ok {
			return domain.ErrUserAlreadyExists
		}
		data.users[user.ID] = *user
		data.userIDsByAddress[user.Address] = user.ID
		return nil
	})
}

func (r *userRepositoryImpl) GetUser(
	ctx context.Context, userID string,
) (*domain.User, error) {
	user, ok := r.db.read(ctx).users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepositoryImpl) GetUserByAddress(
	ctx context.Context, address string,
) (*domain.User, error) {
	data := r.db.read(ctx)
	userID, ok := data.userIDsByAddress[address]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := data.users[userID]
	return &user, nil
}
