package service_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartModel "bookstore-ecommerce/internal/domains/cart/model"
	cartService "bookstore-ecommerce/internal/domains/cart/service"
	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
	orderModel "bookstore-ecommerce/internal/domains/order/model"
	orderService "bookstore-ecommerce/internal/domains/order/service"
	"bookstore-ecommerce/internal/domains/payment/gateway/vnpay"
	"bookstore-ecommerce/internal/domains/payment/model"
	"bookstore-ecommerce/internal/domains/payment/service"
	promoService "bookstore-ecommerce/internal/domains/promotion/service"
	"bookstore-ecommerce/internal/infrastructure/memory"
)

const (
	tmnCode = "DEMO0001"
	secret  = "SECRETKEY123"
)

type paymentFixture struct {
	store    *memory.Store
	orders   orderService.OrderService
	payments service.Service
	user     uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	store := memory.NewStore()
	store.SeedBook(catalogModel.Book{ID: 1, Title: "Designing Data-Intensive Applications", Price: decimal.RequireFromString("9.00"), Stock: 5})

	catalog := catalogService.NewCatalogService(store.Catalog(), memory.NewCache())
	orders := orderService.NewOrderService(
		store.Orders(),
		cartService.NewReconciler(catalog),
		promoService.NewPromotionService(store.Promotions()),
		nil,
	)

	client, err := vnpay.NewClient(vnpay.Config{
		TmnCode:    tmnCode,
		HashSecret: secret,
		APIUrl:     "https://sandbox.vnpayment.vn/paymentv2",
		ReturnURL:  "https://shop.example/return",
		ExpireIn:   15 * time.Minute,
	})
	require.NoError(t, err)

	return &paymentFixture{
		store:    store,
		orders:   orders,
		payments: service.NewPaymentService(client, orders, store.PaymentLogs()),
		user:     uuid.New(),
	}
}

func (f *paymentFixture) createOrder(t *testing.T, method orderModel.PaymentMethod) *orderModel.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), f.user, orderModel.CreateOrderRequest{
		Items: []cartModel.LineRequest{{BookID: 1, Quantity: 2}},
		Shipping: orderModel.ShippingRequest{
			RecipientName: "Tran Thi B",
			Phone:         "0987654321",
			Address:       "45 Nguyen Hue, TP HCM",
		},
		PaymentMethod: method,
	})
	require.NoError(t, err)
	return o
}

func signedCallback(o *orderModel.Order, responseCode string) map[string]string {
	params := map[string]string{
		"vnp_TmnCode":           tmnCode,
		"vnp_TxnRef":            o.Number,
		"vnp_Amount":            strconv.FormatInt(o.MinorUnits(), 10),
		"vnp_ResponseCode":      responseCode,
		"vnp_TransactionStatus": responseCode,
		"vnp_TransactionNo":     "14226112",
		"vnp_BankCode":          "NCB",
		"vnp_PayDate":           "20260501091000",
	}
	params[vnpay.ParamSecureHash] = vnpay.Sign(params, secret)
	return params
}

func TestHandleCallback_PaidThenDuplicate(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, orderModel.PaymentMethodVNPay)
	params := signedCallback(o, vnpay.ResponseCodeSuccess)

	res, err := f.payments.HandleCallback(ctx, params)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, model.OutcomePaid, res.Outcome)
	assert.Equal(t, orderModel.PaymentPaid, res.Order.PaymentStatus)
	require.NotNil(t, res.Order.GatewayTxnRef)
	assert.Equal(t, "14226112", *res.Order.GatewayTxnRef)

	assert.Equal(t, vnpay.IPNAlreadyConfirmed, f.payments.HandleIPN(ctx, params))

	logs, err := f.payments.CallbackLogs(ctx, o.Number)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.OutcomePaid, logs[0].Outcome)
	assert.Equal(t, model.OutcomeDuplicate, logs[1].Outcome)
}

func TestHandleCallback_TamperedSignature(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, orderModel.PaymentMethodVNPay)

	params := signedCallback(o, vnpay.ResponseCodeSuccess)
	params["vnp_Amount"] = "100"

	_, err := f.payments.HandleCallback(ctx, params)
	assert.ErrorIs(t, err, model.ErrInvalidSignature)
	assert.Equal(t, vnpay.IPNInvalidSignature, f.payments.HandleIPN(ctx, params))

	got, err := f.orders.Get(ctx, o.ID, orderModel.SystemActor())
	require.NoError(t, err)
	assert.Equal(t, orderModel.PaymentPending, got.PaymentStatus)

	logs, err := f.payments.CallbackLogs(ctx, o.Number)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.False(t, logs[0].SignatureValid)
	assert.Equal(t, model.OutcomeInvalidSignature, logs[0].Outcome)
}

func TestHandleIPN_Outcomes(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	t.Run("declined", func(t *testing.T) {
		o := f.createOrder(t, orderModel.PaymentMethodVNPay)
		assert.Equal(t, vnpay.IPNConfirmed, f.payments.HandleIPN(ctx, signedCallback(o, vnpay.ResponseCodeUserCancelled)))

		got, err := f.orders.Get(ctx, o.ID, orderModel.SystemActor())
		require.NoError(t, err)
		assert.Equal(t, orderModel.PaymentFailed, got.PaymentStatus)
		assert.Equal(t, orderModel.StatusProcessing, got.Status)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		o := f.createOrder(t, orderModel.PaymentMethodVNPay)
		params := signedCallback(o, vnpay.ResponseCodeSuccess)
		params["vnp_Amount"] = "1"
		params[vnpay.ParamSecureHash] = vnpay.Sign(params, secret)

		assert.Equal(t, vnpay.IPNInvalidAmount, f.payments.HandleIPN(ctx, params))
	})

	t.Run("unknown order", func(t *testing.T) {
		o := &orderModel.Order{Number: "BK20260501FFFFFFFF", Total: decimal.NewFromInt(1)}
		assert.Equal(t, vnpay.IPNOrderNotFound, f.payments.HandleIPN(ctx, signedCallback(o, vnpay.ResponseCodeSuccess)))
	})

	t.Run("paid after cancel", func(t *testing.T) {
		o := f.createOrder(t, orderModel.PaymentMethodVNPay)
		_, err := f.orders.Cancel(ctx, o.ID, orderModel.Actor{UserID: f.user}, "")
		require.NoError(t, err)

		res, err := f.payments.HandleCallback(ctx, signedCallback(o, vnpay.ResponseCodeSuccess))
		require.NoError(t, err)
		assert.True(t, res.Order.RefundRequired)
		assert.Equal(t, orderModel.StatusCancelled, res.Order.Status)
	})
}

func TestInitiatePayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	owner := orderModel.Actor{UserID: f.user}

	o := f.createOrder(t, orderModel.PaymentMethodVNPay)
	resp, err := f.payments.InitiatePayment(ctx, o.ID, owner, "10.0.0.1")
	require.NoError(t, err)
	assert.Contains(t, resp.PaymentURL, "vnp_TxnRef="+o.Number)
	assert.Contains(t, resp.PaymentURL, "vnp_Amount=1800&")

	cod := f.createOrder(t, orderModel.PaymentMethodCOD)
	_, err = f.payments.InitiatePayment(ctx, cod.ID, owner, "10.0.0.1")
	assert.ErrorIs(t, err, model.ErrNotPayable)

	_, err = f.payments.InitiatePayment(ctx, o.ID, orderModel.Actor{UserID: uuid.New()}, "10.0.0.1")
	assert.ErrorIs(t, err, orderModel.ErrOrderNotFound)
}

func TestVerifyReturn_DoesNotChangeOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, orderModel.PaymentMethodVNPay)

	res := f.payments.VerifyReturn(ctx, signedCallback(o, vnpay.ResponseCodeSuccess))
	assert.True(t, res.Valid)
	assert.True(t, res.Success)

	got, err := f.orders.Get(ctx, o.ID, orderModel.SystemActor())
	require.NoError(t, err)
	assert.Equal(t, orderModel.PaymentPending, got.PaymentStatus)

	bad := signedCallback(o, vnpay.ResponseCodeSuccess)
	bad[vnpay.ParamSecureHash] = "00"
	assert.False(t, f.payments.VerifyReturn(ctx, bad).Valid)
}
