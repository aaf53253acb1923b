package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hananlabs/wishpos-backend/api/middleware"
	"github.com/hananlabs/wishpos-backend/api/responses"
	"github.com/hananlabs/wishpos-backend/api/validators"
	"github.com/hananlabs/wishpos-backend/internal/wishlists"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	pkgerrors "github.com/hananlabs/wishpos-backend/pkg/errors"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
	"github.com/hananlabs/wishpos-backend/pkg/pagination"
	"github.com/hananlabs/wishpos-backend/pkg/types"
)

const idempotencyKeyHeader = "Idempotency-Key"

type createWishlistRequest struct {
	OwnerID  string                `json:"owner_id,omitempty"`
	Source   string                `json:"source,omitempty"`
	Items    []wishlists.ItemInput `json:"items" validate:"required,min=1,dive"`
	Metadata types.JSONMap         `json:"metadata,omitempty"`
}

type updateItemsRequest struct {
	Items []wishlists.ItemInput `json:"items" validate:"required,min=1,dive"`
}

type cancelWishlistRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CreateWishlist stages a new wishlist. A fresh creation answers 201; a replay
// through the Idempotency-Key header answers 200 with the original body.
func CreateWishlist(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createWishlistRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerID := middleware.OwnerIDFromContext(r.Context())
		if ownerID == "" {
			ownerID = req.OwnerID
		}

		result, err := svc.Create(r.Context(), wishlists.CreateInput{
			OwnerID:        ownerID,
			Source:         enums.WishlistSource(req.Source),
			Items:          req.Items,
			Metadata:       req.Metadata,
			IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result.Wishlist)
	}
}

// SearchWishlists lists wishlists newest-first with cursor pagination.
func SearchWishlists(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := wishlists.SearchInput{
			OwnerID: middleware.OwnerIDFromContext(r.Context()),
		}
		if ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id")); ownerID != "" {
			input.OwnerID = ownerID
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseWishlistStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			input.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("source")); raw != "" {
			source, err := enums.ParseWishlistSource(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source filter"))
				return
			}
			input.Source = &source
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Page = pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.Search(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// GetWishlist returns one wishlist; a foreign owner sees 404.
func GetWishlist(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wishlist, err := svc.GetByID(r.Context(), id, middleware.OwnerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlist)
	}
}

// UpdateWishlistItems wholesale-replaces the item set of an ACTIVE wishlist.
func UpdateWishlistItems(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wishlist, err := svc.UpdateItems(r.Context(), id, middleware.OwnerIDFromContext(r.Context()), req.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlist)
	}
}

// WishlistQR returns the creation-minted token plus an item summary for the
// kiosk to render.
func WishlistQR(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qr, err := svc.GenerateOrFetchQR(r.Context(), id, middleware.OwnerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, qr)
	}
}

// WishlistStatus is the lightweight polling endpoint for kiosks.
func WishlistStatus(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Status(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// CancelWishlist cancels from any state. The body is optional.
func CancelWishlist(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelWishlistRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		wishlist, err := svc.Cancel(r.Context(), id, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlist)
	}
}

// ExpireWishlist is the operator override that forces EXPIRED from any state.
func ExpireWishlist(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wishlist, err := svc.Expire(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlist)
	}
}

func wishlistIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "wishlistId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid wishlist id")
	}
	return id, nil
}
