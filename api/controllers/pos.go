package controllers

import (
	"net/http"

	"github.com/hananlabs/wishpos-backend/api/middleware"
	"github.com/hananlabs/wishpos-backend/api/responses"
	"github.com/hananlabs/wishpos-backend/api/validators"
	"github.com/hananlabs/wishpos-backend/internal/wishlists"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
)

type redeemRequest struct {
	QRToken string `json:"qr_token" validate:"required"`
}

type completeRequest struct {
	ProcessedBy      string `json:"processed_by,omitempty"`
	ExternalOrderRef string `json:"external_order_ref,omitempty"`
}

// POSRedeemWishlist redeems a scanned token against a known wishlist id. The
// id/token pairing is enforced; a mismatch answers 403.
func POSRedeemWishlist(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req redeemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wishlist, err := svc.RedeemByID(r.Context(), id, req.QRToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlist)
	}
}

// POSRedeemToken redeems on the token alone, for terminals that scan without
// any prior wishlist context.
func POSRedeemToken(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redeemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wishlist, err := svc.RedeemByToken(r.Context(), req.QRToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlist)
	}
}

// POSCompleteWishlist reports the outcome of a PROCESSING wishlist after the
// terminal finished the sale.
func POSCompleteWishlist(svc wishlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := wishlistIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req completeRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		processedBy := req.ProcessedBy
		if processedBy == "" {
			processedBy = middleware.TerminalIDFromContext(r.Context())
		}

		wishlist, err := svc.Complete(r.Context(), id, processedBy, req.ExternalOrderRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlist)
	}
}
