package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/pkg/enums"
	"github.com/hananlabs/wishpos-backend/pkg/types"
)

// Wishlist is a staged POS transaction: a customer-curated list of variants
// plus the one-time QR token a terminal redeems to claim it.
type Wishlist struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       string               `gorm:"column:owner_id;not null;index:wishlists_owner_id_idx"`
	Status        enums.WishlistStatus `gorm:"column:status;not null;default:'ACTIVE';index:wishlists_status_idx"`
	Source        enums.WishlistSource `gorm:"column:source;not null;default:'KIOSK'"`
	QRToken       string               `gorm:"column:qr_token;not null;uniqueIndex:wishlists_qr_token_key"`
	QRTokenUsedAt *time.Time           `gorm:"column:qr_token_used_at"`
	ProcessedAt   *time.Time           `gorm:"column:processed_at"`
	ProcessedBy   *string              `gorm:"column:processed_by"`
	ExpiresAt     time.Time            `gorm:"column:expires_at;not null"`
	Metadata      types.JSONMap        `gorm:"column:metadata;type:jsonb"`
	Items         []WishlistItem       `gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id client-side so inserts work on drivers without
// gen_random_uuid.
func (w *Wishlist) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// IsExpiredAt reports whether the wishlist's TTL has elapsed at the given
// instant, regardless of whether EXPIRED has been materialized yet.
func (w Wishlist) IsExpiredAt(now time.Time) bool {
	return now.After(w.ExpiresAt)
}
