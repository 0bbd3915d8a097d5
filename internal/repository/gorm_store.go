package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"account-service/internal/model"
)

// gormStore implements AccountStore on top of gorm.
//
// Tenant isolation lives in scoped: every query goes through it, which
// injects the tenant_id predicate and rejects empty tenant IDs outright.
// The deleted_at IS NULL filter comes from gorm's soft-delete support on
// model.Account.DeletedAt.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates an AccountStore backed by the given database handle.
func NewGormStore(db *gorm.DB) AccountStore {
	return &gormStore{db: db}
}

func (s *gormStore) scoped(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	return s.db.WithContext(ctx).Where("tenant_id = ?", tenantID), nil
}

func (s *gormStore) Find(ctx context.Context, tenantID, id string) (*model.Account, error) {
	tx, err := s.scoped(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var account model.Account
	if err := tx.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *gormStore) FindByName(ctx context.Context, tenantID, name string) ([]model.Account, error) {
	tx, err := s.scoped(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var accounts []model.Account
	if err := tx.Where("name_lower = ?", strings.ToLower(name)).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *gormStore) ChildrenOf(ctx context.Context, tenantID, parentID string) ([]model.Account, error) {
	tx, err := s.scoped(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var accounts []model.Account
	if err := tx.Where("parent_id = ?", parentID).Order("name_lower asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *gormStore) List(ctx context.Context, tenantID, status string) ([]model.Account, error) {
	tx, err := s.scoped(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if status != "" {
		tx = tx.Where("status = ?", status)
	}

	var accounts []model.Account
	if err := tx.Order("name_lower asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *gormStore) Create(ctx context.Context, tenantID string, account *model.Account) error {
	if tenantID == "" {
		return ErrTenantRequired
	}
	account.TenantID = tenantID
	return s.db.WithContext(ctx).Create(account).Error
}

func (s *gormStore) Update(ctx context.Context, tenantID string, account *model.Account) error {
	tx, err := s.scoped(ctx, tenantID)
	if err != nil {
		return err
	}

	// Select("*") writes zero values too, so clearing parent_id or
	// emptying the tag set actually persists.
	res := tx.Model(&model.Account{}).
		Where("id = ?", account.ID).
		Select("*").
		Omit("id", "tenant_id", "created_at", "deleted_at").
		Updates(account)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) SoftDelete(ctx context.Context, tenantID, id string) error {
	tx, err := s.scoped(ctx, tenantID)
	if err != nil {
		return err
	}

	res := tx.Where("id = ?", id).Delete(&model.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) Transaction(ctx context.Context, fn func(AccountStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
