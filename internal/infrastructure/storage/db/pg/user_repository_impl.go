package postgresdb

import (
	"context"
	"errors"

	"github.com/nftswap/swapd/internal/core/domain"
	"gorm.io/gorm"
)

type userRepositoryImpl struct {
	db *repoManager
}

func NewUserRepositoryImpl(db *repoManager) domain.UserRepository {
	return &userRepositoryImpl{db}
}

func (r *userRepositoryImpl) AddUser(ctx context.Context, user *domain.User) error {
	if _, err := r.GetUserByAddress(ctx, user.Address); err == nil {
		return domain.ErrUserAlreadyExists
	}

	err := r.db.conn(ctx).Create(&userModel{
		ID:        user.ID,
		Address:   user.Address,
		CreatedAt: user.CreatedAt,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrUserAlreadyExists
	}
	return err
}

func (r *userRepositoryImpl) GetUser(
	ctx context.Context, userID string,
) (*domain.User, error) {
	return r.findUser(ctx, "id = ?", userID)
}

func (r *userRepositoryImpl) GetUserByAddress(
	ctx context.Context, address string,
) (*domain.User, error) {
	return r.findUser(ctx, "address = ?", address)
}

func (r *userRepositoryImpl) findUser(
	ctx context.Context, where string, arg string,
) (*domain.User, error) {
	var m userModel
	if err := r.db.conn(ctx).First(&m, where, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &domain.User{ID: m.ID, Address: m.Address, CreatedAt: m.CreatedAt.UTC()}, nil
}
