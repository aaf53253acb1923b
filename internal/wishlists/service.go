package wishlists

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/internal/catalog"
	"github.com/hananlabs/wishpos-backend/internal/idempotency"
	"github.com/hananlabs/wishpos-backend/pkg/config"
	"github.com/hananlabs/wishpos-backend/pkg/db"
	"github.com/hananlabs/wishpos-backend/pkg/db/models"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	pkgerrors "github.com/hananlabs/wishpos-backend/pkg/errors"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
	"github.com/hananlabs/wishpos-backend/pkg/metrics"
	"github.com/hananlabs/wishpos-backend/pkg/pagination"
	"github.com/hananlabs/wishpos-backend/pkg/types"
)

// DefaultProcessedBy tags completions when the terminal doesn't identify itself.
const DefaultProcessedBy = "POS"

const tokenInsertAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the wishlist lifecycle engine: creation, item replacement, QR
// issuance, redemption, and the terminal transitions.
//
// Reads can write: any access past expires_at materializes EXPIRED before the
// result is returned (lazy expiration, there is no background sweep).
type Service interface {
	Create(ctx context.Context, input CreateInput) (CreateResult, error)
	GetByID(ctx context.Context, id uuid.UUID, ownerID string) (WishlistDTO, error)
	Search(ctx context.Context, input SearchInput) (SearchPageDTO, error)
	UpdateItems(ctx context.Context, id uuid.UUID, ownerID string, items []ItemInput) (WishlistDTO, error)
	GenerateOrFetchQR(ctx context.Context, id uuid.UUID, ownerID string) (QRDTO, error)
	RedeemByID(ctx context.Context, id uuid.UUID, token string) (WishlistDTO, error)
	RedeemByToken(ctx context.Context, token string) (WishlistDTO, error)
	Complete(ctx context.Context, id uuid.UUID, processedBy string, externalOrderRef string) (WishlistDTO, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (WishlistDTO, error)
	Expire(ctx context.Context, id uuid.UUID) (WishlistDTO, error)
	Status(ctx context.Context, id uuid.UUID) (StatusDTO, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo    *Repository
	Tx      txRunner
	Ledger  idempotency.Ledger
	Catalog catalog.Provider
	Metrics *metrics.RedemptionMetrics
	Logger  *logger.Logger
	Config  config.WishlistConfig

	// Now and NewToken are injectable for tests; defaults are time.Now and
	// NewQRToken.
	Now      func() time.Time
	NewToken func() (string, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	ledger   idempotency.Ledger
	catalog  catalog.Provider
	metrics  *metrics.RedemptionMetrics
	logg     *logger.Logger
	cfg      config.WishlistConfig
	now      func() time.Time
	newToken func() (string, error)
}

// NewService builds the lifecycle engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency ledger is required")
	}
	svc := &service{
		repo:     params.Repo,
		tx:       params.Tx,
		ledger:   params.Ledger,
		catalog:  params.Catalog,
		metrics:  params.Metrics,
		logg:     params.Logger,
		cfg:      params.Config,
		now:      params.Now,
		newToken: params.NewToken,
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newToken == nil {
		svc.newToken = NewQRToken
	}
	return svc, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (CreateResult, error) {
	if input.OwnerID == "" {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if len(input.Items) == 0 {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if max := s.cfg.MaxItems; max > 0 && len(input.Items) > max {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "too many items").
			WithDetails(map[string]any{"max_items": max})
	}
	source := input.Source
	if source == "" {
		source = enums.WishlistSourceKiosk
	}
	if !source.IsValid() {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown wishlist source").
			WithDetails(map[string]any{"source": string(input.Source)})
	}

	items, err := s.buildItems(ctx, input.Items)
	if err != nil {
		return CreateResult{}, err
	}

	var requestHash string
	if input.IdempotencyKey != "" {
		requestHash, err = fingerprintCreate(input)
		if err != nil {
			return CreateResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fingerprint create request")
		}
		begin, err := s.ledger.BeginOrReplay(ctx, input.IdempotencyKey, enums.OperationCreateWishlist, requestHash)
		if err != nil {
			return CreateResult{}, err
		}
		if !begin.Fresh {
			var cached WishlistDTO
			if err := json.Unmarshal(begin.CachedResponse, &cached); err != nil {
				return CreateResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cached create response")
			}
			return CreateResult{Wishlist: cached, Replayed: true}, nil
		}
	}

	wishlist, err := s.insertWithFreshToken(ctx, input, source, items)
	if err != nil {
		if input.IdempotencyKey != "" {
			if failErr := s.ledger.Fail(ctx, input.IdempotencyKey); failErr != nil && s.logg != nil {
				s.logg.Error(ctx, "release idempotency key", failErr)
			}
		}
		return CreateResult{}, err
	}

	dto := toWishlistDTO(*wishlist)
	if input.IdempotencyKey != "" {
		encoded, err := json.Marshal(dto)
		if err != nil {
			return CreateResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode create response")
		}
		if err := s.ledger.Complete(ctx, input.IdempotencyKey, encoded, wishlist.ID); err != nil {
			return CreateResult{}, err
		}
	}

	s.metrics.IncCreated(source.String())
	return CreateResult{Wishlist: dto}, nil
}

// insertWithFreshToken retries on the astronomically unlikely token collision
// rather than surfacing the unique violation to the caller.
func (s *service) insertWithFreshToken(ctx context.Context, input CreateInput, source enums.WishlistSource, items []models.WishlistItem) (*models.Wishlist, error) {
	now := s.now()

	for attempt := 0; attempt < tokenInsertAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate qr token")
		}

		wishlist := &models.Wishlist{
			OwnerID:   input.OwnerID,
			Status:    enums.WishlistStatusActive,
			Source:    source,
			QRToken:   token,
			ExpiresAt: now.Add(s.cfg.TTL()),
			Metadata:  input.Metadata,
			Items:     items,
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).Insert(ctx, wishlist)
		})
		if err == nil {
			return wishlist, nil
		}
		if !db.IsUniqueViolation(err, "wishlists_qr_token_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist wishlist")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a unique qr token")
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (WishlistDTO, error) {
	wishlist, err := s.loadOwned(ctx, id, ownerID)
	if err != nil {
		return WishlistDTO{}, err
	}
	if s.materializeExpiry(ctx, wishlist) {
		wishlist.Status = enums.WishlistStatusExpired
	}
	return toWishlistDTO(*wishlist), nil
}

func (s *service) Search(ctx context.Context, input SearchInput) (SearchPageDTO, error) {
	filters := SearchFilters{
		OwnerID: input.OwnerID,
		Status:  input.Status,
		Source:  input.Source,
	}
	rows, total, next, err := s.repo.Search(ctx, filters, input.Page)
	if err != nil {
		return SearchPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search wishlists")
	}

	page := SearchPageDTO{Wishlists: make([]WishlistDTO, 0, len(rows))}
	for _, row := range rows {
		page.Wishlists = append(page.Wishlists, toWishlistDTO(row))
	}
	page.Pagination.Total = int(total)
	if next != nil {
		page.Pagination.Next = pagination.EncodeCursor(*next)
	}
	return page, nil
}

func (s *service) UpdateItems(ctx context.Context, id uuid.UUID, ownerID string, inputs []ItemInput) (WishlistDTO, error) {
	if len(inputs) == 0 {
		return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if max := s.cfg.MaxItems; max > 0 && len(inputs) > max {
		return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "too many items").
			WithDetails(map[string]any{"max_items": max})
	}

	wishlist, err := s.loadOwned(ctx, id, ownerID)
	if err != nil {
		return WishlistDTO{}, err
	}
	if s.materializeExpiry(ctx, wishlist) {
		wishlist.Status = enums.WishlistStatusExpired
	}
	if wishlist.Status != enums.WishlistStatusActive {
		return WishlistDTO{}, invalidStateError(wishlist.Status)
	}

	items, err := s.buildItems(ctx, inputs)
	if err != nil {
		return WishlistDTO{}, err
	}
	for i := range items {
		items[i].WishlistID = wishlist.ID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceItems(ctx, wishlist.ID, items)
	})
	if err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace wishlist items")
	}

	return s.reload(ctx, wishlist.ID)
}

func (s *service) GenerateOrFetchQR(ctx context.Context, id uuid.UUID, ownerID string) (QRDTO, error) {
	wishlist, err := s.loadOwned(ctx, id, ownerID)
	if err != nil {
		return QRDTO{}, err
	}
	if s.materializeExpiry(ctx, wishlist) {
		return QRDTO{}, expiredError(wishlist.ExpiresAt)
	}
	if wishlist.Status != enums.WishlistStatusActive {
		return QRDTO{}, invalidStateError(wishlist.Status)
	}

	summaries := make([]QRItemSummary, 0, len(wishlist.Items))
	for _, item := range wishlist.Items {
		summaries = append(summaries, QRItemSummary{
			VariantRef: item.VariantRef,
			Quantity:   item.Quantity,
			Title:      item.Title,
		})
	}
	return QRDTO{
		WishlistID: wishlist.ID,
		QRToken:    wishlist.QRToken,
		ExpiresAt:  wishlist.ExpiresAt,
		Items:      summaries,
	}, nil
}

func (s *service) RedeemByID(ctx context.Context, id uuid.UUID, token string) (WishlistDTO, error) {
	return s.redeem(ctx, token, &id)
}

func (s *service) RedeemByToken(ctx context.Context, token string) (WishlistDTO, error) {
	return s.redeem(ctx, token, nil)
}

// redeem enforces at-most-once token use. The decision is made by a single
// conditional update in MarkRedeemed; everything before it is a fast pre-check
// and everything after handles the losing side of a race.
func (s *service) redeem(ctx context.Context, token string, expectedID *uuid.UUID) (WishlistDTO, error) {
	if token == "" {
		return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "qr token is required")
	}

	wishlist, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncRedemption(metrics.OutcomeNotFound)
			return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "no wishlist matches this qr token")
		}
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist by token")
	}

	if expectedID != nil && wishlist.ID != *expectedID {
		// Deliberately vague so a guessed id can't be confirmed against a
		// leaked token.
		return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "qr token does not match this wishlist")
	}

	if err := s.checkRedeemable(ctx, wishlist); err != nil {
		return WishlistDTO{}, err
	}

	claimed, err := s.repo.MarkRedeemed(ctx, wishlist.ID, s.now())
	if err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem wishlist")
	}
	if !claimed {
		// Another terminal won between our read and the conditional write.
		fresh, err := s.repo.FindByID(ctx, wishlist.ID)
		if err != nil {
			return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wishlist after redemption race")
		}
		if err := s.checkRedeemable(ctx, fresh); err != nil {
			return WishlistDTO{}, err
		}
		s.metrics.IncRedemption(metrics.OutcomeConflict)
		return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "qr token was redeemed concurrently")
	}

	s.metrics.IncRedemption(metrics.OutcomeRedeemed)
	return s.reload(ctx, wishlist.ID)
}

// checkRedeemable reports the first reason the wishlist can't be redeemed:
// already-used token, elapsed TTL (materialized as EXPIRED), or a status other
// than ACTIVE.
func (s *service) checkRedeemable(ctx context.Context, wishlist *models.Wishlist) error {
	if wishlist.QRTokenUsedAt != nil {
		s.metrics.IncRedemption(metrics.OutcomeConflict)
		return pkgerrors.New(pkgerrors.CodeConflict, "qr token already used").
			WithDetails(map[string]any{"used_at": wishlist.QRTokenUsedAt.UTC().Format(time.RFC3339Nano)})
	}
	if wishlist.IsExpiredAt(s.now()) {
		if err := s.repo.MarkExpired(ctx, wishlist.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire wishlist")
		}
		s.metrics.IncExpired()
		s.metrics.IncRedemption(metrics.OutcomeExpired)
		return expiredError(wishlist.ExpiresAt)
	}
	if wishlist.Status != enums.WishlistStatusActive {
		s.metrics.IncRedemption(metrics.OutcomeInvalid)
		return invalidStateError(wishlist.Status)
	}
	return nil
}

func (s *service) Complete(ctx context.Context, id uuid.UUID, processedBy string, externalOrderRef string) (WishlistDTO, error) {
	wishlist, err := s.load(ctx, id)
	if err != nil {
		return WishlistDTO{}, err
	}
	if wishlist.Status != enums.WishlistStatusProcessing {
		return WishlistDTO{}, invalidStateError(wishlist.Status)
	}

	if processedBy == "" {
		processedBy = DefaultProcessedBy
	}
	metadata := wishlist.Metadata
	if externalOrderRef != "" {
		metadata = metadata.Merge(types.JSONMap{"external_order_ref": externalOrderRef})
	}

	if err := s.repo.MarkCompleted(ctx, wishlist.ID, s.now(), processedBy, metadata); err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete wishlist")
	}
	return s.reload(ctx, wishlist.ID)
}

// Cancel is legal from every state, terminal ones included. Operators rely on
// it to pull back stuck PROCESSING wishlists, so it must never lose a race
// with completion reporting.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string) (WishlistDTO, error) {
	wishlist, err := s.load(ctx, id)
	if err != nil {
		return WishlistDTO{}, err
	}

	metadata := wishlist.Metadata
	if reason != "" {
		metadata = metadata.Merge(types.JSONMap{"cancellation_reason": reason})
	}

	if err := s.repo.MarkCancelled(ctx, wishlist.ID, metadata); err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel wishlist")
	}
	return s.reload(ctx, wishlist.ID)
}

// Expire is the administrative override; it forces EXPIRED from any state.
func (s *service) Expire(ctx context.Context, id uuid.UUID) (WishlistDTO, error) {
	wishlist, err := s.load(ctx, id)
	if err != nil {
		return WishlistDTO{}, err
	}
	if err := s.repo.MarkExpired(ctx, wishlist.ID); err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire wishlist")
	}
	return s.reload(ctx, wishlist.ID)
}

func (s *service) Status(ctx context.Context, id uuid.UUID) (StatusDTO, error) {
	wishlist, err := s.load(ctx, id)
	if err != nil {
		return StatusDTO{}, err
	}
	if s.materializeExpiry(ctx, wishlist) {
		wishlist.Status = enums.WishlistStatusExpired
	}
	return StatusDTO{
		Status:    wishlist.Status,
		QRUsed:    wishlist.QRTokenUsedAt != nil,
		Expired:   wishlist.Status == enums.WishlistStatusExpired,
		Processed: wishlist.ProcessedAt != nil,
	}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	wishlist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return wishlist, nil
}

// loadOwned applies the optional ownership filter. A mismatch answers exactly
// like a missing wishlist so owner ids can't be enumerated.
func (s *service) loadOwned(ctx context.Context, id uuid.UUID, ownerID string) (*models.Wishlist, error) {
	wishlist, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && wishlist.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
	}
	return wishlist, nil
}

// materializeExpiry persists EXPIRED when an ACTIVE wishlist is read past its
// TTL. Concurrent readers may both write; the write is idempotent.
func (s *service) materializeExpiry(ctx context.Context, wishlist *models.Wishlist) bool {
	if wishlist.Status != enums.WishlistStatusActive || !wishlist.IsExpiredAt(s.now()) {
		return false
	}
	if err := s.repo.MarkExpired(ctx, wishlist.ID); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "materialize wishlist expiry", err)
		}
		return false
	}
	s.metrics.IncExpired()
	return true
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (WishlistDTO, error) {
	wishlist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wishlist")
	}
	return toWishlistDTO(*wishlist), nil
}

func (s *service) buildItems(ctx context.Context, inputs []ItemInput) ([]models.WishlistItem, error) {
	items := make([]models.WishlistItem, 0, len(inputs))
	defaultCurrency := enums.NormalizeCurrency(s.cfg.DefaultCurrency, enums.CurrencyHKD)

	for i, input := range inputs {
		if input.VariantRef == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant reference is required").
				WithDetails(map[string]any{"index": i})
		}
		quantity := input.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"index": i})
		}

		item := models.WishlistItem{
			VariantRef:   input.VariantRef,
			ProductRef:   input.ProductRef,
			Quantity:     quantity,
			Title:        input.Title,
			VariantTitle: input.VariantTitle,
			Currency:     enums.NormalizeCurrency(input.Currency, defaultCurrency),
			Barcode:      input.Barcode,
			ImageURL:     input.ImageURL,
			RawSnapshot:  input.Extra,
		}

		if input.UnitPrice != nil {
			price, err := decimal.NewFromString(*input.UnitPrice)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price").
					WithDetails(map[string]any{"index": i})
			}
			item.UnitPrice = price
		}

		s.backfillSnapshot(ctx, &item, input)
		items = append(items, item)
	}
	return items, nil
}

// backfillSnapshot fills missing display fields from the catalog provider.
// Best effort only: the wishlist core stays correct without the catalog.
func (s *service) backfillSnapshot(ctx context.Context, item *models.WishlistItem, input ItemInput) {
	if s.catalog == nil {
		return
	}
	if input.Title != nil && input.UnitPrice != nil {
		return
	}

	snapshot, err := s.catalog.VariantSnapshot(ctx, item.VariantRef)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "catalog snapshot backfill failed")
		}
		return
	}

	if item.Title == nil && snapshot.Title != "" {
		title := snapshot.Title
		item.Title = &title
	}
	if item.VariantTitle == nil && snapshot.VariantTitle != "" {
		variantTitle := snapshot.VariantTitle
		item.VariantTitle = &variantTitle
	}
	if item.ProductRef == nil && snapshot.ProductRef != "" {
		productRef := snapshot.ProductRef
		item.ProductRef = &productRef
	}
	if input.UnitPrice == nil && snapshot.Price != "" {
		if price, err := decimal.NewFromString(snapshot.Price); err == nil {
			item.UnitPrice = price
		}
	}
	if item.Barcode == nil {
		item.Barcode = snapshot.Barcode
	}
	if item.ImageURL == nil {
		item.ImageURL = snapshot.ImageURL
	}
}

func fingerprintCreate(input CreateInput) (string, error) {
	payload, err := json.Marshal(struct {
		OwnerID  string               `json:"owner_id"`
		Source   enums.WishlistSource `json:"source"`
		Items    []ItemInput          `json:"items"`
		Metadata types.JSONMap        `json:"metadata,omitempty"`
	}{
		OwnerID:  input.OwnerID,
		Source:   input.Source,
		Items:    input.Items,
		Metadata: input.Metadata,
	})
	if err != nil {
		return "", err
	}
	return idempotency.Fingerprint(payload), nil
}

func invalidStateError(status enums.WishlistStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidState, "wishlist is not in a state that allows this operation").
		WithDetails(map[string]any{"status": status.String()})
}

func expiredError(expiresAt time.Time) error {
	return pkgerrors.New(pkgerrors.CodeExpired, "wishlist has expired").
		WithDetails(map[string]any{"expires_at": expiresAt.UTC().Format(time.RFC3339Nano)})
}
