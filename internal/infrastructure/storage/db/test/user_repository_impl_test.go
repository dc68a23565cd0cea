package db_test

import (
	"context"
	"testing"

	"github.com/nftswap/swapd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryImplementations(t *testing.T) {
	repositories := createRepoManagers(t)

	for i := range repositories {
		repo := repositories[i]

		t.Run(repo.Name, func(t *testing.T) {
			ctx := context.Background()
			user := makeRandomUser()

			err := repo.UserRepository().AddUser(ctx, user)
			require.NoError(t, err)

			duplicate, err := domain.NewUser(user.Address, testTime())
			require.NoError(t, err)
			err = repo.UserRepository().AddUser(ctx, duplicate)
			require.ErrorIs(t, err, domain.ErrUserAlreadyExists)

			got, err := repo.UserRepository().GetUser(ctx, user.ID)
			require.NoError(t, err)
			require.Equal(t, user.ID, got.ID)
			require.Equal(t, user.Address, got.Address)
			require.True(t, user.CreatedAt.Equal(got.CreatedAt))

			got, err = repo.UserRepository().GetUserByAddress(ctx, user.Address)
			require.NoError(t, err)
			require.Equal(t, user.ID, got.ID)

			got, err = repo.UserRepository().GetUser(ctx, "unknown")
			require.ErrorIs(t, err, domain.ErrUserNotFound)
			require.Nil(t, got)

			got, err = repo.UserRepository().GetUserByAddress(ctx, randomAddress())
			require.ErrorIs(t, err, domain.ErrUserNotFound)
			require.Nil(t, got)
		})
	}
}
