package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hananlabs/wishpos-backend/api/middleware"
	"github.com/hananlabs/wishpos-backend/internal/wishlists"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	pkgerrors "github.com/hananlabs/wishpos-backend/pkg/errors"
)

func TestPOSRedeemWishlist(t *testing.T) {
	id := uuid.New()
	svc := &stubWishlistService{
		redeemByIDFn: func(_ context.Context, gotID uuid.UUID, token string) (wishlists.WishlistDTO, error) {
			if gotID != id {
				t.Fatalf("unexpected id %s", gotID)
			}
			if token != "qr-token-1" {
				t.Fatalf("unexpected token %q", token)
			}
			return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusProcessing}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/wishlists/"+id.String()+"/redeem", strings.NewReader(`{"qr_token":"qr-token-1"}`))
	req = addRouteParam(req, "wishlistId", id.String())
	resp := httptest.NewRecorder()
	POSRedeemWishlist(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPOSRedeemWishlistRequiresToken(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/wishlists/"+id.String()+"/redeem", strings.NewReader(`{}`))
	req = addRouteParam(req, "wishlistId", id.String())
	resp := httptest.NewRecorder()
	POSRedeemWishlist(&stubWishlistService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPOSRedeemErrorMapping(t *testing.T) {
	id := uuid.New()
	usedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "already used",
			err:        pkgerrors.New(pkgerrors.CodeConflict, "qr token already used").WithDetails(map[string]any{"used_at": usedAt.Format(time.RFC3339Nano)}),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "expired",
			err:        pkgerrors.New(pkgerrors.CodeExpired, "wishlist has expired"),
			wantStatus: http.StatusGone,
			wantCode:   "EXPIRED",
		},
		{
			name:       "token mismatch",
			err:        pkgerrors.New(pkgerrors.CodeForbidden, "qr token does not match this wishlist"),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "unknown token",
			err:        pkgerrors.New(pkgerrors.CodeNotFound, "no wishlist matches this qr token"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubWishlistService{
				redeemByIDFn: func(context.Context, uuid.UUID, string) (wishlists.WishlistDTO, error) {
					return wishlists.WishlistDTO{}, tc.err
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/wishlists/"+id.String()+"/redeem", strings.NewReader(`{"qr_token":"qr-token-1"}`))
			req = addRouteParam(req, "wishlistId", id.String())
			resp := httptest.NewRecorder()
			POSRedeemWishlist(svc, testLogger())(resp, req)

			if resp.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d: %s", tc.wantStatus, resp.Code, resp.Body.String())
			}
			var envelope struct {
				Error struct {
					Code    string         `json:"code"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("expected code %s got %s", tc.wantCode, envelope.Error.Code)
			}
			if tc.name == "already used" {
				if envelope.Error.Details["used_at"] != usedAt.Format(time.RFC3339Nano) {
					t.Fatalf("conflict must surface used_at, got %+v", envelope.Error.Details)
				}
			}
		})
	}
}

func TestPOSRedeemToken(t *testing.T) {
	svc := &stubWishlistService{
		redeemTokenFn: func(_ context.Context, token string) (wishlists.WishlistDTO, error) {
			if token != "qr-token-1" {
				t.Fatalf("unexpected token %q", token)
			}
			return wishlists.WishlistDTO{ID: uuid.New(), Status: enums.WishlistStatusProcessing}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/redeem", strings.NewReader(`{"qr_token":"qr-token-1"}`))
	resp := httptest.NewRecorder()
	POSRedeemToken(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPOSCompleteUsesTerminalFallback(t *testing.T) {
	id := uuid.New()
	var gotProcessedBy, gotRef string
	svc := &stubWishlistService{
		completeFn: func(_ context.Context, _ uuid.UUID, processedBy, externalOrderRef string) (wishlists.WishlistDTO, error) {
			gotProcessedBy = processedBy
			gotRef = externalOrderRef
			return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusCompleted}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/wishlists/"+id.String()+"/complete", strings.NewReader(`{"external_order_ref":"SO-1001"}`))
	req = req.WithContext(middleware.WithTerminalID(req.Context(), "pos-terminal-7"))
	req = addRouteParam(req, "wishlistId", id.String())
	resp := httptest.NewRecorder()
	POSCompleteWishlist(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotProcessedBy != "pos-terminal-7" {
		t.Fatalf("expected terminal fallback, got %q", gotProcessedBy)
	}
	if gotRef != "SO-1001" {
		t.Fatalf("unexpected order ref %q", gotRef)
	}
}

func TestPOSCompleteBodyWins(t *testing.T) {
	id := uuid.New()
	var gotProcessedBy string
	svc := &stubWishlistService{
		completeFn: func(_ context.Context, _ uuid.UUID, processedBy, _ string) (wishlists.WishlistDTO, error) {
			gotProcessedBy = processedBy
			return wishlists.WishlistDTO{ID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/wishlists/"+id.String()+"/complete", strings.NewReader(`{"processed_by":"cashier-9"}`))
	req = req.WithContext(middleware.WithTerminalID(req.Context(), "pos-terminal-7"))
	req = addRouteParam(req, "wishlistId", id.String())
	resp := httptest.NewRecorder()
	POSCompleteWishlist(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotProcessedBy != "cashier-9" {
		t.Fatalf("unexpected processed_by %q", gotProcessedBy)
	}
}
