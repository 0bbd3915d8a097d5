// Package search publishes account changes to the search indexer.
//
// Synchronization is strictly best-effort: the indexer consumes a redis
// stream asynchronously, and a publish failure must never surface to the
// caller or fail the mutation that triggered it.
package search

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"account-service/internal/model"
)

// Action identifies what happened to the account being synced.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Syncer pushes one account change toward the search index.
type Syncer interface {
	Sync(ctx context.Context, tenantID string, account *model.Account, action Action) error
}

// RedisSyncer publishes account changes to a redis stream consumed by the
// search indexer.
type RedisSyncer struct {
	client *redis.Client
	stream string
	log    *zap.Logger
}

// NewRedisSyncer creates a RedisSyncer publishing to the given stream.
func NewRedisSyncer(client *redis.Client, stream string, log *zap.Logger) *RedisSyncer {
	return &RedisSyncer{
		client: client,
		stream: stream,
		log:    log.With(zap.String("component", "search_sync")),
	}
}

func (s *RedisSyncer) Sync(ctx context.Context, tenantID string, account *model.Account, action Action) error {
	doc, err := json.Marshal(account)
	if err != nil {
		return err
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"action":     string(action),
			"tenant_id":  tenantID,
			"account_id": account.ID,
			"document":   string(doc),
		},
	}).Err()
	if err != nil {
		return err
	}

	s.log.Debug("account change published",
		zap.String("account_id", account.ID),
		zap.String("tenant_id", tenantID),
		zap.String("action", string(action)))
	return nil
}

// NopSyncer discards all sync requests. Used when search sync is disabled.
type NopSyncer struct{}

func (NopSyncer) Sync(ctx context.Context, tenantID string, account *model.Account, action Action) error {
	return nil
}
