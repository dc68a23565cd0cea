package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type userRepositoryImpl struct {
	db *repoManager
}

func NewUserRepositoryImpl(db *repoManager) domain.UserRepository {
	return &userRepositoryImpl{db}
}

func (r *userRepositoryImpl) AddUser(ctx context.Context, user *domain.User) error {
	return r.db.write(ctx, func(tx *badger.Txn) error {
		if _, err := r.getUserByAddress(tx, user.Address); err == nil {
			return domain.ErrUserAlreadyExists
		}
		return r.db.store.TxInsert(tx, user.ID, User{
			ID:        user.ID,
			Address:   user.Address,
			CreatedAt: user.CreatedAt,
		})
	})
}

func (r *userRepositoryImpl) GetUser(
	ctx context.Context, userID string,
) (*domain.User, error) {
	var user User
	if err := r.db.read(ctx, func(tx *badger.Txn) error {
		return r.db.store.TxGet(tx, userID, &user)
	}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &domain.User{
		ID: user.ID, Address: user.Address, CreatedAt: user.CreatedAt,
	}, nil
}

func (r *userRepositoryImpl) GetUserByAddress(
	ctx context.Context, address string,
) (*domain.User, error) {
	var user *domain.User
	if err := r.db.read(ctx, func(tx *badger.Txn) error {
		u, err := r.getUserByAddress(tx, address)
		user = u
		return err
	}); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepositoryImpl) getUserByAddress(
	tx *badger.Txn, address string,
) (*domain.User, error) {
	query := badgerhold.Where("Address").Eq(address).Index("Address")

	var users []User
	if err := r.db.store.TxFind(tx, &users, query); err != nil {
		return nil, err
	}
	if len(users) <= 0 {
		return nil, domain.ErrUserNotFound
	}
	u := users[0]
	return &domain.User{ID: u.ID, Address: u.Address, CreatedAt: u.CreatedAt}, nil
}
