package wishlists

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hananlabs/wishpos-backend/pkg/db/models"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	"github.com/hananlabs/wishpos-backend/pkg/pagination"
	"github.com/hananlabs/wishpos-backend/pkg/types"
)

// ItemInput carries one line of a create or replace-items request. Required
// fields are the variant reference and a positive quantity; everything else is
// snapshot data stored verbatim.
type ItemInput struct {
	VariantRef   string        `json:"variant_ref" validate:"required"`
	ProductRef   *string       `json:"product_ref,omitempty"`
	Quantity     int           `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Title        *string       `json:"title,omitempty"`
	VariantTitle *string       `json:"variant_title,omitempty"`
	UnitPrice    *string       `json:"unit_price,omitempty"`
	Currency     string        `json:"currency,omitempty"`
	Barcode      *string       `json:"barcode,omitempty"`
	ImageURL     *string       `json:"image_url,omitempty"`
	Extra        types.JSONMap `json:"extra,omitempty"`
}

// CreateInput is the full create-wishlist request.
type CreateInput struct {
	OwnerID        string
	Source         enums.WishlistSource
	Items          []ItemInput
	Metadata       types.JSONMap
	IdempotencyKey string
}

// SearchInput filters the wishlist listing. Zero values mean "no filter".
type SearchInput struct {
	OwnerID string
	Status  *enums.WishlistStatus
	Source  *enums.WishlistSource
	Page    pagination.Params
}

// ItemDTO is the API projection of a persisted item snapshot.
type ItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	VariantRef   string          `json:"variant_ref"`
	ProductRef   *string         `json:"product_ref,omitempty"`
	Quantity     int             `json:"quantity"`
	Title        *string         `json:"title,omitempty"`
	VariantTitle *string         `json:"variant_title,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Currency     enums.Currency  `json:"currency"`
	Barcode      *string         `json:"barcode,omitempty"`
	ImageURL     *string         `json:"image_url,omitempty"`
	RawSnapshot  types.JSONMap   `json:"raw_snapshot,omitempty"`
}

// WishlistDTO is the API projection of a wishlist plus its items.
type WishlistDTO struct {
	ID            uuid.UUID            `json:"id"`
	OwnerID       string               `json:"owner_id"`
	Status        enums.WishlistStatus `json:"status"`
	Source        enums.WishlistSource `json:"source"`
	QRToken       string               `json:"qr_token"`
	QRTokenUsedAt *time.Time           `json:"qr_token_used_at,omitempty"`
	ProcessedAt   *time.Time           `json:"processed_at,omitempty"`
	ProcessedBy   *string              `json:"processed_by,omitempty"`
	ExpiresAt     time.Time            `json:"expires_at"`
	Metadata      types.JSONMap        `json:"metadata,omitempty"`
	Items         []ItemDTO            `json:"items"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// CreateResult distinguishes a fresh creation from an idempotent replay so the
// controller can answer 201 vs 200.
type CreateResult struct {
	Wishlist WishlistDTO
	Replayed bool
}

// SearchPageDTO is one newest-first page of wishlists.
type SearchPageDTO struct {
	Wishlists  []WishlistDTO   `json:"wishlists"`
	Pagination pagination.Meta `json:"pagination"`
}

// QRItemSummary is the minimal line shown next to a rendered QR code.
type QRItemSummary struct {
	VariantRef string  `json:"variant_ref"`
	Quantity   int     `json:"quantity"`
	Title      *string `json:"title,omitempty"`
}

// QRDTO is returned by GenerateOrFetchQR. The token is always the one minted
// at creation; rendering it into an image is the caller's concern.
type QRDTO struct {
	WishlistID uuid.UUID       `json:"wishlist_id"`
	QRToken    string          `json:"qr_token"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Items      []QRItemSummary `json:"items"`
}

// StatusDTO is the lightweight polling projection for kiosks.
type StatusDTO struct {
	Status    enums.WishlistStatus `json:"status"`
	QRUsed    bool                 `json:"qr_used"`
	Expired   bool                 `json:"expired"`
	Processed bool                 `json:"processed"`
}

func toItemDTO(item models.WishlistItem) ItemDTO {
	return ItemDTO{
		ID:           item.ID,
		VariantRef:   item.VariantRef,
		ProductRef:   item.ProductRef,
		Quantity:     item.Quantity,
		Title:        item.Title,
		VariantTitle: item.VariantTitle,
		UnitPrice:    item.UnitPrice,
		Currency:     item.Currency,
		Barcode:      item.Barcode,
		ImageURL:     item.ImageURL,
		RawSnapshot:  item.RawSnapshot,
	}
}

func toWishlistDTO(w models.Wishlist) WishlistDTO {
	items := make([]ItemDTO, 0, len(w.Items))
	for _, item := range w.Items {
		items = append(items, toItemDTO(item))
	}
	return WishlistDTO{
		ID:            w.ID,
		OwnerID:       w.OwnerID,
		Status:        w.Status,
		Source:        w.Source,
		QRToken:       w.QRToken,
		QRTokenUsedAt: w.QRTokenUsedAt,
		ProcessedAt:   w.ProcessedAt,
		ProcessedBy:   w.ProcessedBy,
		ExpiresAt:     w.ExpiresAt,
		Metadata:      w.Metadata,
		Items:         items,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}
