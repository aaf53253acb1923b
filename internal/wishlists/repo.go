package wishlists

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/pkg/db/models"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	"github.com/hananlabs/wishpos-backend/pkg/pagination"
	"github.com/hananlabs/wishpos-backend/pkg/types"
)

// Repository encapsulates wishlist persistence. The store is the sole arbiter
// of redemption races, so every cross-request guarantee lives here as a
// conditional update or unique constraint.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert persists a wishlist together with its item snapshots.
func (r *Repository) Insert(ctx context.Context, wishlist *models.Wishlist) error {
	return r.db.WithContext(ctx).Create(wishlist).Error
}

// FindByID loads a wishlist with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&wishlist, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// FindByToken loads a wishlist by its QR token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&wishlist, "qr_token = ?", token).
		Error
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// SearchFilters narrow the listing; zero values are skipped.
type SearchFilters struct {
	OwnerID string
	Status  *enums.WishlistStatus
	Source  *enums.WishlistSource
}

// Search returns one newest-first page of wishlists plus the total count for
// the filter set.
func (r *Repository) Search(ctx context.Context, filters SearchFilters, page pagination.Params) ([]models.Wishlist, int64, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(page.Limit)
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, 0, nil, err
	}

	base := r.db.WithContext(ctx).Model(&models.Wishlist{})
	base = applyFilters(base, filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, nil, err
	}

	query := applyFilters(r.db.WithContext(ctx).Preload("Items"), filters)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Wishlist
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(page.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, total, next, nil
}

func applyFilters(query *gorm.DB, filters SearchFilters) *gorm.DB {
	if filters.OwnerID != "" {
		query = query.Where("owner_id = ?", filters.OwnerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Source != nil {
		query = query.Where("source = ?", *filters.Source)
	}
	return query
}

// ReplaceItems wholesale-swaps the item set: delete all, insert the new rows.
// Callers run this inside a transaction so both halves land together.
func (r *Repository) ReplaceItems(ctx context.Context, wishlistID uuid.UUID, items []models.WishlistItem) error {
	if err := r.db.WithContext(ctx).
		Where("wishlist_id = ?", wishlistID).
		Delete(&models.WishlistItem{}).
		Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// MarkRedeemed is the at-most-once guard. It flips the wishlist to PROCESSING
// and stamps qr_token_used_at in a single conditional update; when two
// terminals race, exactly one sees a row affected. The loser must re-read and
// report why the wishlist is no longer redeemable.
func (r *Repository) MarkRedeemed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ? AND status = ? AND qr_token_used_at IS NULL", id, enums.WishlistStatusActive).
		Updates(map[string]any{
			"status":           enums.WishlistStatusProcessing,
			"qr_token_used_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkExpired materializes lazy expiration. Writing EXPIRED twice is harmless,
// so concurrent readers of an overdue wishlist need no coordination.
func (r *Repository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", id).
		Update("status", enums.WishlistStatusExpired).
		Error
}

// MarkCompleted finalizes a redeemed wishlist.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time, processedBy string, metadata types.JSONMap) error {
	return r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.WishlistStatusCompleted,
			"processed_at": now,
			"processed_by": processedBy,
			"metadata":     metadata,
		}).
		Error
}

// MarkCancelled re-asserts CANCELLED regardless of prior state.
func (r *Repository) MarkCancelled(ctx context.Context, id uuid.UUID, metadata types.JSONMap) error {
	return r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   enums.WishlistStatusCancelled,
			"metadata": metadata,
		}).
		Error
}
