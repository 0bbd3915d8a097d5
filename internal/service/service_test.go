package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"account-service/internal/model"
	"account-service/internal/repository"
	"account-service/internal/search"
)

type syncCall struct {
	tenantID  string
	accountID string
	action    search.Action
}

// mockSyncer records sync calls and optionally fails every one of them.
type mockSyncer struct {
	mu    sync.Mutex
	calls []syncCall
	err   error
}

func (m *mockSyncer) Sync(ctx context.Context, tenantID string, account *model.Account, action search.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, syncCall{tenantID: tenantID, accountID: account.ID, action: action})
	return m.err
}

func (m *mockSyncer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockSyncer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockSyncer) last() syncCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type testEnv struct {
	store     repository.AccountStore
	hierarchy *HierarchyService
	accounts  *AccountService
	bulk      *BulkService
	syncer    *mockSyncer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Account{}))

	log := zap.NewNop()
	store := repository.NewGormStore(db)
	syncer := &mockSyncer{}
	hierarchy := NewHierarchyService(store, log, 0)
	accounts := NewAccountService(store, hierarchy, syncer, log)
	bulk := NewBulkService(accounts, log)

	return &testEnv{
		store:     store,
		hierarchy: hierarchy,
		accounts:  accounts,
		bulk:      bulk,
		syncer:    syncer,
	}
}

func (env *testEnv) mustCreate(t *testing.T, tenantID, name string, parentID *string) *model.Account {
	t.Helper()
	account := &model.Account{Name: name, ParentID: parentID}
	require.NoError(t, env.store.Create(context.Background(), tenantID, account))
	return account
}

// mustChain creates a parent-child chain of the given names, returning the
// accounts root-first.
func (env *testEnv) mustChain(t *testing.T, tenantID string, names ...string) []*model.Account {
	t.Helper()
	accounts := make([]*model.Account, 0, len(names))
	var parentID *string
	for _, name := range names {
		account := env.mustCreate(t, tenantID, name, parentID)
		parentID = &account.ID
		accounts = append(accounts, account)
	}
	return accounts
}
