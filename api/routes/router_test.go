package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hananlabs/wishpos-backend/api/controllers"
	"github.com/hananlabs/wishpos-backend/internal/wishlists"
	"github.com/hananlabs/wishpos-backend/pkg/config"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
)

type stubWishlistService struct {
	getFn    func(ctx context.Context, id uuid.UUID, ownerID string) (wishlists.WishlistDTO, error)
	redeemFn func(ctx context.Context, token string) (wishlists.WishlistDTO, error)
}

func (s *stubWishlistService) Create(ctx context.Context, input wishlists.CreateInput) (wishlists.CreateResult, error) {
	return wishlists.CreateResult{Wishlist: wishlists.WishlistDTO{ID: uuid.New(), Status: enums.WishlistStatusActive}}, nil
}

func (s *stubWishlistService) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (wishlists.WishlistDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id, ownerID)
	}
	return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusActive}, nil
}

func (s *stubWishlistService) Search(ctx context.Context, input wishlists.SearchInput) (wishlists.SearchPageDTO, error) {
	return wishlists.SearchPageDTO{}, nil
}

func (s *stubWishlistService) UpdateItems(ctx context.Context, id uuid.UUID, ownerID string, items []wishlists.ItemInput) (wishlists.WishlistDTO, error) {
	return wishlists.WishlistDTO{ID: id}, nil
}

func (s *stubWishlistService) GenerateOrFetchQR(ctx context.Context, id uuid.UUID, ownerID string) (wishlists.QRDTO, error) {
	return wishlists.QRDTO{WishlistID: id}, nil
}

func (s *stubWishlistService) RedeemByID(ctx context.Context, id uuid.UUID, token string) (wishlists.WishlistDTO, error) {
	return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusProcessing}, nil
}

func (s *stubWishlistService) RedeemByToken(ctx context.Context, token string) (wishlists.WishlistDTO, error) {
	if s.redeemFn != nil {
		return s.redeemFn(ctx, token)
	}
	return wishlists.WishlistDTO{ID: uuid.New(), Status: enums.WishlistStatusProcessing}, nil
}

func (s *stubWishlistService) Complete(ctx context.Context, id uuid.UUID, processedBy, externalOrderRef string) (wishlists.WishlistDTO, error) {
	return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusCompleted}, nil
}

func (s *stubWishlistService) Cancel(ctx context.Context, id uuid.UUID, reason string) (wishlists.WishlistDTO, error) {
	return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusCancelled}, nil
}

func (s *stubWishlistService) Expire(ctx context.Context, id uuid.UUID) (wishlists.WishlistDTO, error) {
	return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusExpired}, nil
}

func (s *stubWishlistService) Status(ctx context.Context, id uuid.UUID) (wishlists.StatusDTO, error) {
	return wishlists.StatusDTO{Status: enums.WishlistStatusActive}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(svc wishlists.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:    testConfig(),
		Logger:    logg,
		Wishlists: svc,
		ReadyChecks: []controllers.ReadyCheck{
			{Name: "database", Check: func(context.Context) error { return nil }},
		},
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&stubWishlistService{})

	live := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, live)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health/live got %d", resp.Code)
	}

	ready := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, ready)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health/ready got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&stubWishlistService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics got %d", resp.Code)
	}
}

func TestGatewayHeadersReachHandlers(t *testing.T) {
	var gotOwner string
	svc := &stubWishlistService{
		getFn: func(_ context.Context, id uuid.UUID, ownerID string) (wishlists.WishlistDTO, error) {
			gotOwner = ownerID
			return wishlists.WishlistDTO{ID: id, Status: enums.WishlistStatusActive}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlists/"+uuid.NewString(), nil)
	req.Header.Set("X-Owner-Id", "shopper-42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotOwner != "shopper-42" {
		t.Fatalf("expected owner from gateway header, got %q", gotOwner)
	}
}

func TestPOSRedeemRouteWired(t *testing.T) {
	var gotToken string
	svc := &stubWishlistService{
		redeemFn: func(_ context.Context, token string) (wishlists.WishlistDTO, error) {
			gotToken = token
			return wishlists.WishlistDTO{ID: uuid.New(), Status: enums.WishlistStatusProcessing}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/redeem", strings.NewReader(`{"qr_token":"qr-abc"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotToken != "qr-abc" {
		t.Fatalf("expected token from body, got %q", gotToken)
	}
}

func TestCatalogRouteWithoutProvider(t *testing.T) {
	router := newTestRouter(&stubWishlistService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?query=tea", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without catalog provider got %d", resp.Code)
	}
}
