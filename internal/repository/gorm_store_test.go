package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"account-service/internal/model"
)

func newTestStore(t *testing.T) AccountStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Account{}))

	return NewGormStore(db)
}

func mustCreate(t *testing.T, store AccountStore, tenantID string, account *model.Account) *model.Account {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), tenantID, account))
	return account
}

func TestGormStore_TenantRequired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Find(ctx, "", "some-id")
	assert.ErrorIs(t, err, ErrTenantRequired)

	_, err = store.FindByName(ctx, "", "acme")
	assert.ErrorIs(t, err, ErrTenantRequired)

	_, err = store.ChildrenOf(ctx, "", "some-id")
	assert.ErrorIs(t, err, ErrTenantRequired)

	_, err = store.List(ctx, "", "")
	assert.ErrorIs(t, err, ErrTenantRequired)

	assert.ErrorIs(t, store.Create(ctx, "", &model.Account{Name: "acme"}), ErrTenantRequired)
	assert.ErrorIs(t, store.Update(ctx, "", &model.Account{ID: "some-id"}), ErrTenantRequired)
	assert.ErrorIs(t, store.SoftDelete(ctx, "", "some-id"), ErrTenantRequired)
}

func TestGormStore_TenantIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	acme := mustCreate(t, store, "tenant-a", &model.Account{Name: "Acme"})
	mustCreate(t, store, "tenant-b", &model.Account{Name: "Globex"})

	t.Run("Find scoped to tenant", func(t *testing.T) {
		found, err := store.Find(ctx, "tenant-a", acme.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", found.Name)

		_, err = store.Find(ctx, "tenant-b", acme.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("List never crosses tenants", func(t *testing.T) {
		accounts, err := store.List(ctx, "tenant-a", "")
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		for _, a := range accounts {
			assert.Equal(t, "tenant-a", a.TenantID)
		}
	})

	t.Run("Update scoped to tenant", func(t *testing.T) {
		stolen := *acme
		stolen.Name = "Hijacked"
		err := store.Update(ctx, "tenant-b", &stolen)
		assert.ErrorIs(t, err, ErrNotFound)

		kept, err := store.Find(ctx, "tenant-a", acme.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", kept.Name)
	})

	t.Run("SoftDelete scoped to tenant", func(t *testing.T) {
		assert.ErrorIs(t, store.SoftDelete(ctx, "tenant-b", acme.ID), ErrNotFound)
	})
}

func TestGormStore_FindByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "tenant-a", &model.Account{Name: "Acme"})

	t.Run("matches case-insensitively", func(t *testing.T) {
		for _, name := range []string{"acme", "ACME", "Acme", "aCmE"} {
			found, err := store.FindByName(ctx, "tenant-a", name)
			require.NoError(t, err)
			assert.Len(t, found, 1, "name %q should match", name)
		}
	})

	t.Run("does not match other tenants", func(t *testing.T) {
		found, err := store.FindByName(ctx, "tenant-b", "acme")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestGormStore_SoftDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	parent := mustCreate(t, store, "tenant-a", &model.Account{Name: "Parent"})
	child := mustCreate(t, store, "tenant-a", &model.Account{Name: "Child", ParentID: &parent.ID})

	require.NoError(t, store.SoftDelete(ctx, "tenant-a", child.ID))

	t.Run("deleted rows disappear from reads", func(t *testing.T) {
		_, err := store.Find(ctx, "tenant-a", child.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		children, err := store.ChildrenOf(ctx, "tenant-a", parent.ID)
		require.NoError(t, err)
		assert.Empty(t, children)

		found, err := store.FindByName(ctx, "tenant-a", "child")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("deleting twice reports not found", func(t *testing.T) {
		assert.ErrorIs(t, store.SoftDelete(ctx, "tenant-a", child.ID), ErrNotFound)
	})
}

func TestGormStore_ChildrenOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	parent := mustCreate(t, store, "tenant-a", &model.Account{Name: "Parent"})
	mustCreate(t, store, "tenant-a", &model.Account{Name: "zeta", ParentID: &parent.ID})
	mustCreate(t, store, "tenant-a", &model.Account{Name: "Alpha", ParentID: &parent.ID})
	mustCreate(t, store, "tenant-a", &model.Account{Name: "beta", ParentID: &parent.ID})

	children, err := store.ChildrenOf(ctx, "tenant-a", parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "Alpha", children[0].Name)
	assert.Equal(t, "beta", children[1].Name)
	assert.Equal(t, "zeta", children[2].Name)
}

func TestGormStore_UpdateClearsParent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	parent := mustCreate(t, store, "tenant-a", &model.Account{Name: "Parent"})
	child := mustCreate(t, store, "tenant-a", &model.Account{Name: "Child", ParentID: &parent.ID})

	child.ParentID = nil
	require.NoError(t, store.Update(ctx, "tenant-a", child))

	reloaded, err := store.Find(ctx, "tenant-a", child.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ParentID)
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sentinel := fmt.Errorf("abort")
	err := store.Transaction(ctx, func(tx AccountStore) error {
		if err := tx.Create(ctx, "tenant-a", &model.Account{Name: "Ephemeral"}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	found, err := store.FindByName(ctx, "tenant-a", "ephemeral")
	require.NoError(t, err)
	assert.Empty(t, found)
}
