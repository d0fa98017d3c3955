package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/auth"
	"ridehail/internal/domain"
	"ridehail/internal/handler"
	"ridehail/internal/notify"
	"ridehail/internal/pricing"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/service"
	"ridehail/internal/tests"
)

type testServer struct {
	router   *gin.Engine
	gateway  *tests.MockPaymentGateway
	verifier *auth.JWTVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore(repository.RetryPolicy{MaxAttempts: 10, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	inbox := notify.NewInbox(memory.NewNotificationRepository())
	notifications := service.NewNotificationService(notify.NewFanout(inbox, notify.Log{}))
	gateway := tests.NewMockPaymentGateway()
	verifier := auth.NewJWTVerifier("router-test-secret")

	lifecycle := service.NewLifecycleService(store, notifications, nil)
	router := NewRouter(RouterDeps{
		RequestHandler: handler.NewRequestHandler(
			service.NewRequestService(store, nil),
			service.NewMatchingService(store, pricing.NewDefaultCalculator(), notifications),
			lifecycle,
		),
		RideHandler: handler.NewRideHandler(service.NewRideService(store, nil), lifecycle),
		WalletHandler: handler.NewWalletHandler(
			service.NewWalletService(store),
			service.NewTopUpService(store, gateway, notifications, service.TopUpConfig{}),
		),
		NotificationHandler: handler.NewNotificationHandler(inbox),
		Verifier:            verifier,
	})

	return &testServer{router: router, gateway: gateway, verifier: verifier}
}

func (s *testServer) do(t *testing.T, uid, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		token, err := s.verifier.Sign(uid, "", time.Hour)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func expectStatus(t *testing.T, step string, got, want int, body map[string]any) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: expected %d, got %d (%v)", step, want, got, body)
	}
}

func TestRouter_TopUpClaimComplete(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	code, body := s.do(t, "rider-1", http.MethodPost, "/v1/wallet", nil)
	expectStatus(t, "open wallet", code, http.StatusCreated, body)

	code, body = s.do(t, "rider-1", http.MethodPost, "/v1/wallet/topups", map[string]any{"amount_cents": 2000})
	expectStatus(t, "create intent", code, http.StatusCreated, body)
	intentID := body["payment_intent_id"].(string)
	s.gateway.SetStatus(intentID, domain.PaymentIntentStatusSucceeded)

	code, body = s.do(t, "rider-1", http.MethodPost, "/v1/wallet/topups/confirm", map[string]any{"payment_intent_id": intentID})
	expectStatus(t, "confirm", code, http.StatusOK, body)
	if body["credited"] != true || body["balance_cents"].(float64) != 2000 {
		t.Fatalf("expected credit to 2000, got %v", body)
	}

	code, body = s.do(t, "rider-1", http.MethodPost, "/v1/wallet/topups/confirm", map[string]any{"payment_intent_id": intentID})
	expectStatus(t, "confirm again", code, http.StatusOK, body)
	if body["credited"] != false {
		t.Fatalf("expected second confirm not to credit, got %v", body)
	}

	code, body = s.do(t, "rider-1", http.MethodPost, "/v1/requests", map[string]any{
		"pickup":      map[string]float64{"lat": 3.1340, "lng": 101.6860},
		"destination": map[string]float64{"lat": 3.1430, "lng": 101.6860},
	})
	expectStatus(t, "create request", code, http.StatusCreated, body)
	requestID := body["id"].(string)

	code, body = s.do(t, "driver-1", http.MethodPost, "/v1/requests/"+requestID+"/claim", nil)
	expectStatus(t, "claim", code, http.StatusCreated, body)
	rideID := body["ride_id"].(string)
	if body["hold_amount_cents"].(float64) != 500 {
		t.Fatalf("expected 500 hold, got %v", body)
	}

	code, body = s.do(t, "driver-2", http.MethodPost, "/v1/requests/"+requestID+"/claim", nil)
	expectStatus(t, "second claim", code, http.StatusConflict, body)

	code, body = s.do(t, "rider-1", http.MethodGet, "/v1/wallet", nil)
	expectStatus(t, "rider balance", code, http.StatusOK, body)
	if body["balance_cents"].(float64) != 1500 {
		t.Fatalf("expected 1500 after hold, got %v", body)
	}

	code, body = s.do(t, "rider-1", http.MethodPost, "/v1/rides/"+rideID+"/complete", nil)
	expectStatus(t, "rider complete", code, http.StatusForbidden, body)

	code, body = s.do(t, "driver-1", http.MethodPost, "/v1/rides/"+rideID+"/complete", nil)
	expectStatus(t, "complete", code, http.StatusOK, body)
	if body["outcome"] != "applied" {
		t.Fatalf("expected applied, got %v", body)
	}

	code, body = s.do(t, "driver-1", http.MethodPost, "/v1/rides/"+rideID+"/complete", nil)
	expectStatus(t, "complete again", code, http.StatusOK, body)
	if body["outcome"] != "already_applied" {
		t.Fatalf("expected already_applied, got %v", body)
	}

	code, body = s.do(t, "driver-1", http.MethodGet, "/v1/wallet", nil)
	expectStatus(t, "driver balance", code, http.StatusOK, body)
	if body["balance_cents"].(float64) != 500 {
		t.Fatalf("expected driver paid 500, got %v", body)
	}

	code, body = s.do(t, "rider-1", http.MethodGet, "/v1/wallet/ledger", nil)
	expectStatus(t, "ledger", code, http.StatusOK, body)
	if n := len(body["entries"].([]any)); n != 2 {
		t.Fatalf("expected topup and hold entries, got %d", n)
	}

	code, body = s.do(t, "rider-1", http.MethodGet, "/v1/notifications", nil)
	expectStatus(t, "notifications", code, http.StatusOK, body)
	if n := len(body["notifications"].([]any)); n < 3 {
		t.Fatalf("expected topup, accepted and completed notifications, got %d", n)
	}
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	code, _ := s.do(t, "", http.MethodGet, "/v1/wallet", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}

	code, _ = s.do(t, "", http.MethodGet, "/health", nil)
	if code != http.StatusOK {
		t.Errorf("expected health 200, got %d", code)
	}
}

func TestRouter_CancelRefundsRider(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	s.gateway.AddIntent(&domain.PaymentIntent{
		ID:          "pi_seed",
		AmountCents: 1000,
		Currency:    "myr",
		Status:      domain.PaymentIntentStatusSucceeded,
		Metadata:    domain.IntentMetadata{UID: "rider-1", Purpose: domain.TopUpPurpose},
	})
	s.do(t, "rider-1", http.MethodPost, "/v1/wallet", nil)
	code, body := s.do(t, "rider-1", http.MethodPost, "/v1/wallet/topups/confirm", map[string]any{"payment_intent_id": "pi_seed"})
	expectStatus(t, "seed", code, http.StatusOK, body)

	_, body = s.do(t, "rider-1", http.MethodPost, "/v1/requests", map[string]any{
		"pickup":      map[string]float64{"lat": 3.1340, "lng": 101.6860},
		"destination": map[string]float64{"lat": 3.1430, "lng": 101.6860},
	})
	requestID := body["id"].(string)
	_, body = s.do(t, "driver-1", http.MethodPost, "/v1/requests/"+requestID+"/claim", nil)
	rideID := body["ride_id"].(string)

	code, body = s.do(t, "rider-1", http.MethodPost, "/v1/rides/"+rideID+"/cancel", map[string]any{"cancelled_by": "driver"})
	expectStatus(t, "wrong party", code, http.StatusForbidden, body)

	code, body = s.do(t, "rider-1", http.MethodPost, "/v1/rides/"+rideID+"/cancel", map[string]any{"cancelled_by": "rider", "reason": "changed plans"})
	expectStatus(t, "cancel", code, http.StatusOK, body)
	ride := body["ride"].(map[string]any)
	if ride["payment_status"] != "refunded" || ride["status"] != "cancelled" {
		t.Fatalf("unexpected ride %v", ride)
	}

	_, body = s.do(t, "rider-1", http.MethodGet, "/v1/wallet", nil)
	if body["balance_cents"].(float64) != 1000 {
		t.Fatalf("expected full refund to 1000, got %v", body)
	}

	code, body = s.do(t, "rider-1", http.MethodGet, "/v1/requests/"+requestID, nil)
	expectStatus(t, "request", code, http.StatusOK, body)
	if body["status"] != "cancelled" {
		t.Fatalf("expected request cancelled, got %v", body)
	}
}
