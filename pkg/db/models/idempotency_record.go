package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/pkg/enums"
)

// IdempotencyRecord pins a caller-supplied key to the response it produced so
// retried creates replay instead of re-executing. Keys never leave COMPLETED.
type IdempotencyRecord struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key              string                  `gorm:"column:key;not null;uniqueIndex:idempotency_records_key_key"`
	OperationType    enums.OperationType     `gorm:"column:operation_type;not null"`
	Status           enums.IdempotencyStatus `gorm:"column:status;not null;default:'PROCESSING'"`
	RequestHash      string                  `gorm:"column:request_hash;not null"`
	LinkedWishlistID *uuid.UUID              `gorm:"column:linked_wishlist_id;type:uuid"`
	CachedResponse   []byte                  `gorm:"column:cached_response"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id client-side so inserts work on drivers without
// gen_random_uuid.
func (r *IdempotencyRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
