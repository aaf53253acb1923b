package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/pkg/enums"
	"github.com/hananlabs/wishpos-backend/pkg/types"
)

// WishlistItem is a point-in-time offer snapshot. Display fields and price are
// captured when the item is added and never refreshed from the catalog.
type WishlistItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WishlistID   uuid.UUID       `gorm:"column:wishlist_id;type:uuid;not null;index:wishlist_items_wishlist_id_idx"`
	VariantRef   string          `gorm:"column:variant_ref;not null"`
	ProductRef   *string         `gorm:"column:product_ref"`
	Quantity     int             `gorm:"column:quantity;not null;default:1"`
	Title        *string         `gorm:"column:title"`
	VariantTitle *string         `gorm:"column:variant_title"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	Currency     enums.Currency  `gorm:"column:currency;not null;default:'HKD'"`
	Barcode      *string         `gorm:"column:barcode"`
	ImageURL     *string         `gorm:"column:image_url"`
	RawSnapshot  types.JSONMap   `gorm:"column:raw_snapshot;type:jsonb"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the id client-side so inserts work on drivers without
// gen_random_uuid.
func (i *WishlistItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
