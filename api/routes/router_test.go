package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	ordersvc "github.com/nucleotide-health/nucleotide-backend/internal/orders"
	pkgAuth "github.com/nucleotide-health/nucleotide-backend/pkg/auth"
	"github.com/nucleotide-health/nucleotide-backend/pkg/config"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct {
	webhookCalls int
	lastBody     []byte
	lastSig      string
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input ordersvc.CreateOrderInput) (*ordersvc.CreateOrderResult, error) {
	return &ordersvc.CreateOrderResult{OrderNumber: "ORD0000000000AAAAAAAA"}, nil
}

func (s *stubOrdersService) VerifyPayment(ctx context.Context, input ordersvc.VerifyPaymentInput) (*ordersvc.VerifyPaymentResult, error) {
	return &ordersvc.VerifyPaymentResult{Status: "success"}, nil
}

func (s *stubOrdersService) ProcessWebhook(ctx context.Context, body []byte, signature string) (*ordersvc.WebhookResult, error) {
	s.webhookCalls++
	s.lastBody = body
	s.lastSig = signature
	return &ordersvc.WebhookResult{Status: "processed"}, nil
}

func (s *stubOrdersService) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string, trigger enums.TransitionTrigger) error {
	return nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input ordersvc.UpdateStatusInput) (*ordersvc.UpdateStatusResult, error) {
	return &ordersvc.UpdateStatusResult{OrderNumber: input.OrderNumber, Scope: ordersvc.ScopeOrder, Status: input.Status, OrderStatus: input.Status}, nil
}

func (s *stubOrdersService) ListOrders(ctx context.Context, userID uuid.UUID) ([]ordersvc.OrderSummary, error) {
	return []ordersvc.OrderSummary{}, nil
}

func (s *stubOrdersService) Tracking(ctx context.Context, userID uuid.UUID, orderNumber string) (*ordersvc.TrackingResult, error) {
	return &ordersvc.TrackingResult{OrderNumber: orderNumber}, nil
}

func (s *stubOrdersService) ReconcileConfirmedCarts(ctx context.Context, batchSize int) (int, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, svc ordersvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, stubPinger{}, svc)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

func TestOrderRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), &stubOrdersService{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/orders/create"},
		{http.MethodPost, "/api/v1/orders/verify-payment"},
		{http.MethodGet, "/api/v1/orders/"},
		{http.MethodGet, "/api/v1/orders/ORD123/tracking"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without token got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestOrderListSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubOrdersService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestWebhookRouteSkipsAuthAndForwardsRawBody(t *testing.T) {
	svc := &stubOrdersService{}
	router := newTestRouter(testConfig(), svc)

	body := `{"event":"payment.captured"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/webhook", strings.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "sig-value")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.webhookCalls != 1 {
		t.Fatalf("expected one webhook dispatch got %d", svc.webhookCalls)
	}
	if string(svc.lastBody) != body {
		t.Fatalf("raw body must reach the service unchanged, got %q", svc.lastBody)
	}
	if svc.lastSig != "sig-value" {
		t.Fatalf("signature header must be forwarded, got %q", svc.lastSig)
	}
}

func TestStatusUpdateRouteSkipsAuth(t *testing.T) {
	router := newTestRouter(testConfig(), &stubOrdersService{})

	body := `{"status":"scheduled"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/ORD123/status", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(testConfig(), &stubOrdersService{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if got := resp.Header().Get("X-Nucleotide-Env"); got != "test" {
			t.Fatalf("%s: expected env header, got %q", path, got)
		}
	}
}
