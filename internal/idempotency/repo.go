package idempotency

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/pkg/db/models"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
)

// Repository persists idempotency records. The unique key constraint is the
// arbiter for concurrent duplicate creates arriving at different instances.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an idempotency repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert creates a fresh PROCESSING record. A unique violation means another
// request holds the key.
func (r *Repository) Insert(ctx context.Context, record *models.IdempotencyRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByKey loads the record for a key.
func (r *Repository) FindByKey(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	var record models.IdempotencyRecord
	err := r.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkCompleted stores the response to replay and pins the created wishlist.
// Completed records never transition again.
func (r *Repository) MarkCompleted(ctx context.Context, key string, response []byte, linkedWishlistID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.IdempotencyRecord{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"status":             enums.IdempotencyStatusCompleted,
			"cached_response":    response,
			"linked_wishlist_id": linkedWishlistID,
		}).
		Error
}

// MarkFailed flags the record so a later retry can take the key over.
func (r *Repository) MarkFailed(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Model(&models.IdempotencyRecord{}).
		Where("key = ?", key).
		Update("status", enums.IdempotencyStatusFailed).
		Error
}

// TakeOver resets a FAILED record back to PROCESSING for a retry. The status
// guard keeps it from clobbering a record another request already owns.
func (r *Repository) TakeOver(ctx context.Context, key, requestHash string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.IdempotencyRecord{}).
		Where("key = ? AND status = ?", key, enums.IdempotencyStatusFailed).
		Updates(map[string]any{
			"status":       enums.IdempotencyStatusProcessing,
			"request_hash": requestHash,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
