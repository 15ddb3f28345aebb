package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-ecommerce/internal/config"
	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	otpModel "bookstore-ecommerce/internal/domains/otp/model"
	"bookstore-ecommerce/internal/domains/payment/gateway/vnpay"
	promoModel "bookstore-ecommerce/internal/domains/promotion/model"
	"bookstore-ecommerce/internal/infrastructure/memory"
	"bookstore-ecommerce/pkg/container"
)

const (
	testTmnCode = "TESTTMN1"
	testSecret  = "TESTSECRETTESTSECRETTESTSECRET00"
)

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (i *inbox) SendOTP(_ context.Context, email string, purpose otpModel.Purpose, code string, _ time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.codes[email+"|"+string(purpose)] = code
	return nil
}

func (i *inbox) code(email string, purpose otpModel.Purpose) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codes[email+"|"+string(purpose)]
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	inbox  *inbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("APP_STORAGE_DRIVER", "memory")
	t.Setenv("VNPAY_TMN_CODE", testTmnCode)
	t.Setenv("VNPAY_HASH_SECRET", testSecret)
	cfg, err := config.Load()
	require.NoError(t, err)

	store := memory.NewStore()
	store.SeedBook(catalogModel.Book{ID: 1, Title: "The Pragmatic Programmer", Price: decimal.RequireFromString("10.00"), Stock: 5})
	store.SeedPromo(promoModel.PromoCode{
		Code:            "WELCOME10",
		DiscountPercent: decimal.NewFromInt(10),
		MinAmount:       decimal.NewFromInt(15),
		ExpiryDate:      time.Now().Add(24 * time.Hour),
	})

	box := &inbox{codes: make(map[string]string)}
	c, err := container.NewMemoryContainer(cfg, store, box)
	require.NoError(t, err)

	return &testServer{router: SetupRouter(c), store: store, inbox: box}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

// register chạy đủ luồng OTP → verify → register, trả về access + refresh token
func (s *testServer) register(t *testing.T, email string) (string, string) {
	t.Helper()

	code, _ := s.do(t, http.MethodPost, "/api/v1/auth/otp/request", "", gin.H{"email": email, "purpose": "register"})
	require.Equal(t, http.StatusAccepted, code)

	otp := s.inbox.code(email, otpModel.PurposeRegister)
	require.NotEmpty(t, otp)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/otp/verify", "", gin.H{"email": email, "purpose": "register", "code": otp})
	require.Equal(t, http.StatusOK, code)
	var verified struct {
		Token string `json:"verification_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verified))

	code, env = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":              email,
		"password":           "Secret123",
		"full_name":          "Le Van C",
		"verification_token": verified.Token,
		"device_class":       "web",
	})
	require.Equal(t, http.StatusCreated, code)

	var auth struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken, auth.RefreshToken
}

func TestCheckoutAndPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.register(t, "buyer@example.com")

	code, env := s.do(t, http.MethodPost, "/api/v1/orders", access, gin.H{
		"items":          []gin.H{{"book_id": 1, "quantity": 2}},
		"promo_code":     "WELCOME10",
		"payment_method": "vnpay",
		"shipping": gin.H{
			"recipient_name": "Le Van C",
			"phone":          "0901234567",
			"address":        "1 Dong Khoi, TP HCM",
		},
	})
	require.Equal(t, http.StatusCreated, code)

	var created struct {
		Order struct {
			ID     string          `json:"id"`
			Number string          `json:"number"`
			Total  decimal.Decimal `json:"total"`
		} `json:"order"`
		PaymentURL string `json:"payment_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "18.00", created.Order.Total.StringFixed(2))
	assert.Contains(t, created.PaymentURL, "vnp_Amount=1800")
	assert.Equal(t, 3, s.store.BookStock(1))

	// IPN từ gateway
	params := map[string]string{
		"vnp_TmnCode":       testTmnCode,
		"vnp_TxnRef":        created.Order.Number,
		"vnp_Amount":        strconv.Itoa(1800),
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14300001",
	}
	params[vnpay.ParamSecureHash] = vnpay.Sign(params, testSecret)
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	for _, want := range []string{"00", "02"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/ipn?"+query.Encode(), nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var reply vnpay.IPNResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
		assert.Equal(t, want, reply.RspCode)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/orders/"+created.Order.ID, access, nil)
	require.Equal(t, http.StatusOK, code)
	var fetched struct {
		PaymentStatus string `json:"payment_status"`
		Status        string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, "paid", fetched.PaymentStatus)
	assert.Equal(t, "processing", fetched.Status)
}

func TestTamperedIPNIsRejected(t *testing.T) {
	s := newTestServer(t)

	query := url.Values{
		"vnp_TmnCode":      {testTmnCode},
		"vnp_TxnRef":       {"BK20260101AAAAAAAA"},
		"vnp_Amount":       {"1800"},
		"vnp_ResponseCode": {"00"},
		"vnp_SecureHash":   {"ABCDEF"},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/ipn?"+query.Encode(), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var reply vnpay.IPNResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, vnpay.IPNInvalidSignature.RspCode, reply.RspCode)
}

func TestRefreshRotation(t *testing.T) {
	s := newTestServer(t)
	_, refresh := s.register(t, "rotate@example.com")

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, code)
	var rotated struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rotated))
	assert.NotEqual(t, refresh, rotated.RefreshToken)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestReconcileAsGuest(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/cart/reconcile", "", gin.H{
		"items": []gin.H{{"book_id": 1, "quantity": 9}},
	})
	require.Equal(t, http.StatusOK, code)

	var res struct {
		Lines []struct {
			Quantity int `json:"quantity"`
		} `json:"lines"`
		Adjustments []struct {
			Kind    string `json:"kind"`
			Granted int    `json:"granted"`
		} `json:"adjustments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Lines, 1)
	assert.Equal(t, 5, res.Lines[0].Quantity)
	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, "partially_fulfilled", res.Adjustments[0].Kind)
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	access, _ := s.register(t, "customer@example.com")
	code, _ = s.do(t, http.MethodGet, "/api/v1/admin/orders", access, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestLoginLockout(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "locked@example.com")

	for i := 0; i < 5; i++ {
		code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "locked@example.com", "password": "Wrong1234"})
		require.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "USR003", env.Error.Code)
	}

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "locked@example.com", "password": "Secret123"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "USR005", env.Error.Code)
}
