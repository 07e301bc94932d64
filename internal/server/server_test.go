package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/repository"
	"github.com/King12-D/hypegrow-boost/internal/service"
	"github.com/King12-D/hypegrow-boost/internal/storage"
	"github.com/King12-D/hypegrow-boost/internal/testutil"
	"github.com/King12-D/hypegrow-boost/internal/ws"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "server-test-secret"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

type testServer struct {
	url      string
	hub      *ws.Hub
	profiles service.ProfileService
}

// fakePanel answers like a JustAnotherPanel v2 endpoint.
func fakePanel(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch r.PostForm.Get("action") {
		case "services":
			_, _ = w.Write([]byte(`[{"service": 11, "name": "Instagram Followers", "rate": "0.90", "min": "100", "max": "10000", "category": "Instagram - Followers"}]`))
		case "add":
			_, _ = w.Write([]byte(`{"order": 1001}`))
		case "status":
			_, _ = w.Write([]byte(`{"status": "In progress", "remains": "10", "charge": "0.45", "start_count": "5"}`))
		default:
			_, _ = w.Write([]byte(`{"error": "Incorrect request"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	l := zap.NewNop()
	proofDir := filepath.Join(t.TempDir(), "proofs")

	resellerCfg := &config.Reseller{BaseApiURL: fakePanel(t).URL, APIKey: "k", Timeout: 5 * time.Second, PriceMultiplier: 1000, CatalogTTL: time.Minute}
	proofStore, err := storage.NewLocalProofStore(&config.Storage{ProofDir: proofDir, PublicBaseURL: "/payment-proofs", MaxProofBytes: 1 << 20})
	require.NoError(t, err)

	resellerClient := client.NewResellerClient(resellerCfg)
	cardClient := client.NewBraintreeClient(&config.Braintree{})
	publisher := client.NewEventPublisher(&config.Kafka{}, l)
	hub := ws.NewHub(l)

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), hub, l)
	catalog := service.NewCatalogService(packageRepo, resellerClient, resellerCfg, l)
	discounts := service.NewDiscountService(db, repository.NewDiscountRepository(db))
	fulfillment := service.NewFulfillmentService(db, orderRepo, resellerClient, notifications, publisher,
		&config.Fulfillment{AutoDispatch: true, PollBatch: 10}, l)
	profiles := service.NewProfileService(profileRepo, repository.NewRoleRepository(db), walletRepo)

	srv := NewServer(Services{
		Catalog:  catalog,
		Discount: discounts,
		Order: service.NewOrderService(db, orderRepo, packageRepo, catalog, discounts, fulfillment,
			notifications, publisher, resellerCfg, l),
		Payment: service.NewPaymentService(db, orderRepo, paymentRepo, profileRepo, walletRepo, proofStore,
			cardClient, fulfillment, notifications, publisher, l),
		Admin: service.NewAdminService(db, orderRepo, paymentRepo, profileRepo, walletRepo, fulfillment,
			notifications, publisher, l),
		Profile:      profiles,
		Support:      service.NewSupportService(repository.NewTicketRepository(db), notifications),
		Notification: notifications,
		Analytics:    service.NewAnalyticsService(repository.NewAnalyticsRepository(db)),
	}, hub, Options{
		JWTSecret:      testSecret,
		ProofDir:       proofDir,
		ProofURLPrefix: "/payment-proofs",
		BodyLimit:      "2M",
	}, l)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testServer{url: ts.URL, hub: hub, profiles: profiles}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Email: userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.url+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = s.do(t, http.MethodGet, "/api/orders/anything", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "missing bearer token", body["error"])

	code, _ = s.do(t, http.MethodGet, "/api/admin/stats", "u1", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(t, http.MethodGet, "/api/profile", "u1", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u1@example.com", body["email"])
}

func TestBankTransferFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.profiles.GrantAdmin(ctx, "boss"))

	code, order := s.do(t, http.MethodPost, "/api/orders", "u1", map[string]interface{}{
		"reseller_service_id": 11,
		"quantity":            500,
		"post_link":           "https://instagram.com/p/abc",
	})
	require.Equal(t, http.StatusCreated, code, order)
	assert.Equal(t, "Awaiting Payment", order["display_status"])
	assert.Equal(t, "abc", order["username"])
	orderID := order["id"].(string)

	code, payment := s.do(t, http.MethodPost, "/api/payments", "u1", map[string]interface{}{
		"order_id":       orderID,
		"payment_method": "bank_transfer",
		"bank_reference": "TRX-1",
	})
	require.Equal(t, http.StatusCreated, code, payment)
	paymentID := payment["id"].(string)

	code, body := s.do(t, http.MethodPost, "/api/payments", "u1", map[string]interface{}{
		"order_id":       orderID,
		"payment_method": "bank_transfer",
	})
	assert.Equal(t, http.StatusConflict, code, body)

	// proof upload
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "receipt.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.url+"/api/payments/"+paymentID+"/proof", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "u1"))
	code, payment = send(t, req)
	require.Equal(t, http.StatusOK, code, payment)
	assert.Equal(t, "submitted", payment["status"])
	proofURL := payment["payment_proof_url"].(string)
	assert.True(t, strings.HasPrefix(proofURL, "/payment-proofs/"))

	resp, err := http.Get(s.url + proofURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, _ = s.do(t, http.MethodPost, "/api/admin/payments/"+paymentID+"/verify", "u1", map[string]interface{}{"approved": true})
	assert.Equal(t, http.StatusForbidden, code)

	code, payment = s.do(t, http.MethodPost, "/api/admin/payments/"+paymentID+"/verify", "boss", map[string]interface{}{"approved": true})
	require.Equal(t, http.StatusOK, code, payment)
	assert.Equal(t, "verified", payment["status"])

	code, body = s.do(t, http.MethodPost, "/api/admin/payments/"+paymentID+"/verify", "boss", map[string]interface{}{"approved": true})
	assert.Equal(t, http.StatusConflict, code, body)

	code, order = s.do(t, http.MethodGet, "/api/orders/"+orderID, "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Processing", order["display_status"])
	assert.Equal(t, "dispatched", order["fulfillment_state"])
	assert.Equal(t, float64(1001), order["reseller_order_id"])

	code, stats := s.do(t, http.MethodGet, "/api/admin/stats", "boss", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), stats["total_orders"])
	assert.Equal(t, "450", stats["verified_revenue"])

	code, _ = s.do(t, http.MethodGet, "/api/orders/"+orderID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestResellerCatalog(t *testing.T) {
	s := newTestServer(t)

	code, groups := s.do(t, http.MethodGet, "/api/reseller/services", "", nil)
	require.Equal(t, http.StatusOK, code)

	instagram, ok := groups["Instagram"].(map[string]interface{})
	require.True(t, ok, groups)
	followers := instagram["Followers"].([]interface{})
	require.Len(t, followers, 1)

	svc := followers[0].(map[string]interface{})
	assert.Equal(t, float64(11), svc["jap_service_id"])
	assert.Equal(t, float64(900), svc["price"])
	assert.NotContains(t, svc, "rate")
}

func TestNotificationSocket(t *testing.T) {
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/api/notifications/ws?token=" + tokenFor(t, "u1")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Connected("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	code, _ := s.do(t, http.MethodPost, "/api/tickets", "u1", map[string]interface{}{
		"subject": "Where is my order",
		"message": "It has been two days",
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, http.MethodPost, "/api/orders", "u1", map[string]interface{}{
		"reseller_service_id": 11,
		"quantity":            100,
		"username":            "brand",
	})
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Order placed", msg["title"])

	code, list := s.do(t, http.MethodGet, "/api/notifications", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), list["unread_count"])

	code, _ = s.do(t, http.MethodPost, "/api/notifications/read-all", "u1", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, list = s.do(t, http.MethodGet, "/api/notifications", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), list["unread_count"])
}
