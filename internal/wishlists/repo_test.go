package wishlists

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/pkg/db/models"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	"github.com/hananlabs/wishpos-backend/pkg/pagination"
	"github.com/hananlabs/wishpos-backend/pkg/types"
)

func setupWishlistDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:wishlists_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Wishlist{}, &models.WishlistItem{}, &models.IdempotencyRecord{}))
	return db
}

func seedWishlist(t *testing.T, db *gorm.DB, mutate func(*models.Wishlist)) *models.Wishlist {
	t.Helper()

	title := "Oolong Sampler"
	wishlist := &models.Wishlist{
		OwnerID:   "member-001",
		Status:    enums.WishlistStatusActive,
		Source:    enums.WishlistSourceKiosk,
		QRToken:   "tok_" + uuid.NewString(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		Items: []models.WishlistItem{
			{VariantRef: "gid://shopify/ProductVariant/111", Quantity: 2, Title: &title, Currency: enums.CurrencyHKD},
		},
	}
	if mutate != nil {
		mutate(wishlist)
	}
	require.NoError(t, db.Create(wishlist).Error)
	return wishlist
}

func TestRepositoryInsertAndFind(t *testing.T) {
	t.Parallel()

	db := setupWishlistDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedWishlist(t, db, nil)
	require.NotEqual(t, uuid.Nil, seeded.ID)

	byID, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.OwnerID, byID.OwnerID)
	require.Len(t, byID.Items, 1)
	assert.Equal(t, "gid://shopify/ProductVariant/111", byID.Items[0].VariantRef)

	byToken, err := repo.FindByToken(ctx, seeded.QRToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, byToken.ID)

	_, err = repo.FindByToken(ctx, "tok_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositorySearch(t *testing.T) {
	t.Parallel()

	db := setupWishlistDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		createdAt := base.Add(time.Duration(i) * time.Minute)
		seedWishlist(t, db, func(w *models.Wishlist) {
			w.CreatedAt = createdAt
		})
	}
	cancelled := enums.WishlistStatusCancelled
	seedWishlist(t, db, func(w *models.Wishlist) {
		w.OwnerID = "member-002"
		w.Status = cancelled
	})

	rows, total, next, err := repo.Search(ctx, SearchFilters{OwnerID: "member-001"}, pagination.Params{Limit: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, rows, 3)
	require.NotNil(t, next)
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt), "expected newest-first ordering")

	rows, _, next, err = repo.Search(ctx, SearchFilters{OwnerID: "member-001"}, pagination.Params{
		Limit:  3,
		Cursor: pagination.EncodeCursor(*next),
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Nil(t, next)

	rows, total, _, err = repo.Search(ctx, SearchFilters{Status: &cancelled}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "member-002", rows[0].OwnerID)
}

func TestRepositoryReplaceItems(t *testing.T) {
	t.Parallel()

	db := setupWishlistDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedWishlist(t, db, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).ReplaceItems(ctx, seeded.ID, []models.WishlistItem{
			{WishlistID: seeded.ID, VariantRef: "gid://shopify/ProductVariant/222", Quantity: 1, Currency: enums.CurrencyHKD},
			{WishlistID: seeded.ID, VariantRef: "gid://shopify/ProductVariant/333", Quantity: 4, Currency: enums.CurrencyHKD},
		})
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	refs := []string{reloaded.Items[0].VariantRef, reloaded.Items[1].VariantRef}
	assert.Contains(t, refs, "gid://shopify/ProductVariant/222")
	assert.Contains(t, refs, "gid://shopify/ProductVariant/333")
}

func TestRepositoryMarkRedeemedClaimsOnce(t *testing.T) {
	t.Parallel()

	db := setupWishlistDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedWishlist(t, db, nil)
	now := time.Now()

	claimed, err := repo.MarkRedeemed(ctx, seeded.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.MarkRedeemed(ctx, seeded.ID, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must lose")

	reloaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WishlistStatusProcessing, reloaded.Status)
	require.NotNil(t, reloaded.QRTokenUsedAt)
	assert.WithinDuration(t, now, *reloaded.QRTokenUsedAt, time.Second)
}

func TestRepositoryMarkRedeemedSkipsNonActive(t *testing.T) {
	t.Parallel()

	db := setupWishlistDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedWishlist(t, db, func(w *models.Wishlist) {
		w.Status = enums.WishlistStatusCancelled
	})

	claimed, err := repo.MarkRedeemed(ctx, seeded.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestRepositoryMarkExpiredIdempotent(t *testing.T) {
	t.Parallel()

	db := setupWishlistDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedWishlist(t, db, nil)

	require.NoError(t, repo.MarkExpired(ctx, seeded.ID))
	require.NoError(t, repo.MarkExpired(ctx, seeded.ID))

	reloaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WishlistStatusExpired, reloaded.Status)
}

func TestRepositoryMarkCompletedAndCancelled(t *testing.T) {
	t.Parallel()

	db := setupWishlistDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedWishlist(t, db, nil)
	now := time.Now()

	require.NoError(t, repo.MarkCompleted(ctx, seeded.ID, now, "pos-terminal-7", types.JSONMap{"external_order_ref": "SO-1001"}))

	reloaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WishlistStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.ProcessedBy)
	assert.Equal(t, "pos-terminal-7", *reloaded.ProcessedBy)
	require.NotNil(t, reloaded.ProcessedAt)
	assert.Equal(t, "SO-1001", reloaded.Metadata["external_order_ref"])

	require.NoError(t, repo.MarkCancelled(ctx, seeded.ID, types.JSONMap{"cancellation_reason": "operator request"}))

	reloaded, err = repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WishlistStatusCancelled, reloaded.Status)
	assert.Equal(t, "operator request", reloaded.Metadata["cancellation_reason"])
}
