package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mealflow/configs"
	"mealflow/entity"
	"mealflow/payments"
	"mealflow/pkg/apperr"
	"mealflow/pkg/mailer"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeGateway struct {
	sessions    map[string]*payments.SessionStatus
	createCalls int
	webhook     *payments.WebhookPaid
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	f.createCalls++
	id := fmt.Sprintf("cs_test_%d", f.createCalls)
	return &payments.CheckoutSession{SessionID: id, URL: "https://pay.example/" + id}, nil
}

func (f *fakeGateway) RetrieveSession(ctx context.Context, sessionID string) (*payments.SessionStatus, error) {
	st, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return st, nil
}

func (f *fakeGateway) ParseWebhook(payload []byte, signature string) (*payments.WebhookPaid, error) {
	return f.webhook, nil
}

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB, *fakeGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(
		&entity.User{}, &entity.Otp{},
		&entity.Category{}, &entity.MenuItem{}, &entity.CartItem{},
		&entity.Order{}, &entity.OrderItem{}, &entity.OrderCounter{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &configs.Config{
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		Currency:  "gbp",
		OTPTTL:    5 * time.Minute,
	}
	gw := &fakeGateway{sessions: map[string]*payments.SessionStatus{}}

	r := gin.New()
	RegisterRoutes(r, db, cfg, gw, mailer.LogSender{})
	return r, db, gw
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		OK   bool            `json:"ok"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v (%s)", err, envelope.Data)
		}
	}
}

func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Test User", "email": email, "password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Token == "" {
		t.Fatalf("no token in register response: %s", w.Body.String())
	}
	return body.Token
}

func loginAdmin(t *testing.T, r *gin.Engine, db *gorm.DB) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatal(err)
	}
	admin := entity.User{Email: "admin@example.com", Password: string(hashed), Name: "Admin", Role: "admin"}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "admin@example.com", "password": "admin123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: %d %s", w.Code, w.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Token == "" {
		t.Fatalf("no token in login response: %s", w.Body.String())
	}
	return body.Token
}

func orderBody() gin.H {
	return gin.H{
		"customerName":   "Asha Patel",
		"customerMobile": "07700900123",
		"addressLine1":   "1 High Street",
		"city":           "Leeds",
		"postcode":       "LS1 1AA",
		"paymentMethod":  "card",
		"items": []gin.H{
			{"name": "Curry", "price": 9.50, "quantity": 2},
			{"name": "Rice", "price": 2.00, "quantity": 1},
		},
	}
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
}

func TestAuthGuards(t *testing.T) {
	r, db, _ := newTestServer(t)
	user := registerUser(t, r, "user@example.com")

	if w := doJSON(t, r, http.MethodPost, "/api/orders", "", orderBody()); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous order create: %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/orders/admin", user, nil); w.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: %d", w.Code)
	}

	admin := loginAdmin(t, r, db)
	if w := doJSON(t, r, http.MethodGet, "/api/orders/admin", admin, nil); w.Code != http.StatusOK {
		t.Fatalf("admin search: %d %s", w.Code, w.Body.String())
	}
}

func TestCardOrderLifecycleOverHTTP(t *testing.T) {
	r, db, gw := newTestServer(t)
	user := registerUser(t, r, "customer@example.com")
	admin := loginAdmin(t, r, db)

	// place the order
	w := doJSON(t, r, http.MethodPost, "/api/orders", user, orderBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}
	var order struct {
		ID          uint    `json:"ID"`
		Status      string  `json:"status"`
		DisplayCode string  `json:"displayCode"`
		TotalAmount float64 `json:"totalAmount"`
	}
	decodeData(t, w, &order)
	if order.Status != "pending_payment" {
		t.Fatalf("initial status = %s", order.Status)
	}
	if !strings.HasPrefix(order.DisplayCode, "MF") || order.TotalAmount != 21.00 {
		t.Fatalf("order = %+v", order)
	}

	// open checkout
	w = doJSON(t, r, http.MethodPost, "/api/payment/create-checkout-session", user, gin.H{"orderId": order.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("create checkout: %d %s", w.Code, w.Body.String())
	}
	var session struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	decodeData(t, w, &session)
	if session.URL == "" {
		t.Fatal("no checkout url")
	}

	// provider settles, browser redirect confirms
	gw.sessions[session.SessionID] = &payments.SessionStatus{
		SessionID: session.SessionID, Paid: true,
		PaymentIntentID: "pi_http", PaymentStatus: "paid", IntentStatus: "succeeded",
	}
	w = doJSON(t, r, http.MethodPost, "/api/payment/confirm", user, gin.H{"session_id": session.SessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", w.Code, w.Body.String())
	}
	var confirm struct {
		Paid   bool   `json:"paid"`
		Status string `json:"status"`
	}
	decodeData(t, w, &confirm)
	if !confirm.Paid || confirm.Status != "paid" {
		t.Fatalf("confirm = %+v", confirm)
	}

	// kitchen takes over
	path := fmt.Sprintf("/api/orders/%d/status", order.ID)
	if w = doJSON(t, r, http.MethodPatch, path, admin, gin.H{"status": "preparing"}); w.Code != http.StatusOK {
		t.Fatalf("to preparing: %d %s", w.Code, w.Body.String())
	}
	// skipping ready is rejected
	if w = doJSON(t, r, http.MethodPatch, path, admin, gin.H{"status": "completed"}); w.Code != http.StatusBadRequest {
		t.Fatalf("skip ahead: %d %s", w.Code, w.Body.String())
	}

	// receipt: owner yes, stranger no
	receipt := fmt.Sprintf("/api/orders/%d/receipt", order.ID)
	if w = doJSON(t, r, http.MethodGet, receipt, user, nil); w.Code != http.StatusOK {
		t.Fatalf("owner receipt: %d", w.Code)
	}
	stranger := registerUser(t, r, "stranger@example.com")
	if w = doJSON(t, r, http.MethodGet, receipt, stranger, nil); w.Code != http.StatusForbidden {
		t.Fatalf("stranger receipt: %d", w.Code)
	}
}

func TestWebhookMarksOrderPaid(t *testing.T) {
	r, _, gw := newTestServer(t)
	user := registerUser(t, r, "hook@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/orders", user, orderBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: %d", w.Code)
	}
	var order struct {
		ID uint `json:"ID"`
	}
	decodeData(t, w, &order)

	gw.webhook = &payments.WebhookPaid{
		OrderID:   fmt.Sprintf("%d", order.ID),
		SessionID: "cs_hook", PaymentIntentID: "pi_hook",
	}
	w = doJSON(t, r, http.MethodPost, "/api/payment/stripe-webhook", "", gin.H{})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook: %d %s", w.Code, w.Body.String())
	}

	receipt := fmt.Sprintf("/api/orders/%d/receipt", order.ID)
	w = doJSON(t, r, http.MethodGet, receipt, user, nil)
	var got struct {
		Status string `json:"status"`
	}
	decodeData(t, w, &got)
	if got.Status != "paid" {
		t.Fatalf("status after webhook = %s", got.Status)
	}
}

func TestInvalidStatusValueRejected(t *testing.T) {
	r, db, _ := newTestServer(t)
	user := registerUser(t, r, "u@example.com")
	admin := loginAdmin(t, r, db)

	w := doJSON(t, r, http.MethodPost, "/api/orders", user, orderBody())
	var order struct {
		ID uint `json:"ID"`
	}
	decodeData(t, w, &order)

	path := fmt.Sprintf("/api/orders/%d/status", order.ID)
	if w = doJSON(t, r, http.MethodPatch, path, admin, gin.H{"status": "refunded"}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d %s", w.Code, w.Body.String())
	}
}
