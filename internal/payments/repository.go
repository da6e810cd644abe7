package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByExternalID(ctx context.Context, externalID string) (*Transaction, error)
	// ApplyTransition conditionally writes the new status with a
	// compare-and-swap on the current one. Returns false when another
	// delivery already moved the transaction, which callers treat as a
	// duplicate rather than an error.
	ApplyTransition(ctx context.Context, txn *Transaction, from TransactionStatus, updates map[string]interface{}) (bool, error)
	// RecordAttempt bumps the webhook counter and stores the raw payload for
	// audit, regardless of which branch the pipeline took.
	RecordAttempt(ctx context.Context, txn *Transaction, rawPayload []byte) error
	// AppendEvent inserts into the idempotency ledger. Returns false when the
	// (provider, transaction, status) triple was already recorded.
	AppendEvent(ctx context.Context, event *WebhookEvent) (bool, error)
	// SeenRecently is the redis fast path in front of the ledger; errors are
	// soft, callers fall through to the database.
	SeenRecently(ctx context.Context, dedupKey string) (bool, error)
	MarkSeen(ctx context.Context, dedupKey string) error
}

type repository struct {
	db       *gorm.DB
	redis    *redis.Client
	dedupTTL time.Duration
}

func NewRepository(db *gorm.DB, redisClient *redis.Client, dedupTTL time.Duration) Repository {
	return &repository{
		db:       db,
		redis:    redisClient,
		dedupTTL: dedupTTL,
	}
}

func (r *repository) Create(ctx context.Context, txn *Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) GetByExternalID(ctx context.Context, externalID string) (*Transaction, error) {
	var txn Transaction
	err := r.db.WithContext(ctx).
		First(&txn, "external_transaction_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ApplyTransition(ctx context.Context, txn *Transaction, from TransactionStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND status = ?", txn.ID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) RecordAttempt(ctx context.Context, txn *Transaction, rawPayload []byte) error {
	return r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]interface{}{
			"webhook_attempts":     gorm.Expr("webhook_attempts + 1"),
			"last_webhook_payload": rawPayload,
		}).Error
}

func (r *repository) AppendEvent(ctx context.Context, event *WebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) SeenRecently(ctx context.Context, dedupKey string) (bool, error) {
	if r.redis == nil {
		return false, nil
	}
	n, err := r.redis.Exists(ctx, r.redisKey(dedupKey)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) MarkSeen(ctx context.Context, dedupKey string) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Set(ctx, r.redisKey(dedupKey), 1, r.dedupTTL).Err()
}

func (r *repository) redisKey(dedupKey string) string {
	return fmt.Sprintf("slotwise:webhook:dedup:%s", dedupKey)
}
