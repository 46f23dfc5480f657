package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/authgard/authgard/internal/auth"
	"github.com/authgard/authgard/internal/database/testutil"
	"github.com/authgard/authgard/internal/models"
	"github.com/authgard/authgard/internal/store"
)

func newUserStore(t *testing.T) (*store.UserStore, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	users, err := store.NewUserStore(db)
	require.NoError(t, err)
	return users, db
}

func TestUserStoreInsertAndFind(t *testing.T) {
	users, _ := newUserStore(t)
	ctx := context.Background()

	user := &models.User{Username: "aragorn", Email: "aragorn@gondor.example", Password: "hash"}
	require.NoError(t, users.Insert(ctx, user))
	require.NotEmpty(t, user.ID)

	byID, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "aragorn", byID.Username)

	byName, err := users.FindByUsername(ctx, "aragorn")
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.ID)

	byEither, err := users.FindByUsernameOrEmail(ctx, "nobody", "aragorn@gondor.example")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEither.ID)
}

func TestUserStoreNotFound(t *testing.T) {
	users, _ := newUserStore(t)
	ctx := context.Background()

	_, err := users.FindByID(ctx, "missing")
	require.ErrorIs(t, err, auth.ErrNotFound)

	_, err = users.FindByUsername(ctx, "missing")
	require.ErrorIs(t, err, auth.ErrNotFound)

	_, err = users.FindByUsernameOrEmail(ctx, "missing", "missing@example.com")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUserStoreLookupIsCaseSensitive(t *testing.T) {
	users, _ := newUserStore(t)
	ctx := context.Background()

	require.NoError(t, users.Insert(ctx, &models.User{Username: "Boromir", Email: "Boromir@gondor.example", Password: "hash"}))

	_, err := users.FindByUsername(ctx, "boromir")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUserStoreDuplicateInsert(t *testing.T) {
	users, _ := newUserStore(t)
	ctx := context.Background()

	require.NoError(t, users.Insert(ctx, &models.User{Username: "gimli", Email: "gimli@erebor.example", Password: "hash"}))

	err := users.Insert(ctx, &models.User{Username: "gimli", Email: "other@erebor.example", Password: "hash"})
	require.ErrorIs(t, err, auth.ErrDuplicate)

	err = users.Insert(ctx, &models.User{Username: "other", Email: "gimli@erebor.example", Password: "hash"})
	require.ErrorIs(t, err, auth.ErrDuplicate)
}
