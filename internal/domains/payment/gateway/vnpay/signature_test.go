package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "SECRETKEY123"

func TestCanonicalize(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef":        "BK20260501ABCD1234",
		"vnp_Amount":        "1800000",
		"vnp_OrderInfo":     "Thanh toan don hang ~1",
		"vnp_BankCode":      "",
		ParamSecureHash:     "deadbeef",
		ParamSecureHashType: "HmacSHA512",
		"vnp_ReturnUrl":     "https://shop.example/return?a=b",
	}

	got := Canonicalize(params)
	assert.Equal(t,
		"vnp_Amount=1800000&vnp_OrderInfo=Thanh+toan+don+hang+%7E1"+
			"&vnp_ReturnUrl=https%3A%2F%2Fshop.example%2Freturn%3Fa%3Db&vnp_TxnRef=BK20260501ABCD1234",
		got)
}

func TestSignAndVerify(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef":       "BK20260501ABCD1234",
		"vnp_Amount":       "1800000",
		"vnp_ResponseCode": "00",
	}

	sig := Sign(params, testSecret)
	assert.Len(t, sig, 128)
	assert.Equal(t, strings.ToUpper(sig), sig)

	params[ParamSecureHash] = sig
	assert.True(t, Verify(params, testSecret))

	// chữ ký lowercase vẫn hợp lệ
	params[ParamSecureHash] = strings.ToLower(sig)
	assert.True(t, Verify(params, testSecret))

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, Verify(params, "other"))
	})

	t.Run("tampered amount", func(t *testing.T) {
		tampered := copyParams(params)
		tampered["vnp_Amount"] = "100"
		assert.False(t, Verify(tampered, testSecret))
	})

	t.Run("missing hash", func(t *testing.T) {
		missing := copyParams(params)
		delete(missing, ParamSecureHash)
		assert.False(t, Verify(missing, testSecret))
	})
}

func TestBuildPaymentURL_RoundTrip(t *testing.T) {
	client, err := NewClient(Config{
		TmnCode:    "DEMO0001",
		HashSecret: testSecret,
		APIUrl:     "https://sandbox.vnpayment.vn/paymentv2",
		ReturnURL:  "https://shop.example/payments/vnpay/return",
	})
	require.NoError(t, err)
	client.now = func() time.Time { return time.Date(2026, 5, 1, 2, 0, 0, 0, time.UTC) }

	raw, err := client.BuildPaymentURL(PaymentRequest{
		TxnRef:      "BK20260501ABCD1234",
		AmountMinor: 1800,
		OrderInfo:   "Thanh toan don hang BK20260501ABCD1234",
		ClientIP:    "::1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	params := FromValues(u.Query())

	assert.Equal(t, "1800", params["vnp_Amount"])
	assert.Equal(t, "127.0.0.1", params["vnp_IpAddr"])
	assert.Equal(t, "20260501090000", params["vnp_CreateDate"])
	assert.Equal(t, "20260501091500", params["vnp_ExpireDate"])
	assert.True(t, client.Verify(params))
}

func TestBuildPaymentURL_Rejects(t *testing.T) {
	client, err := NewClient(Config{TmnCode: "DEMO0001", HashSecret: testSecret, APIUrl: "https://x", ReturnURL: "https://y"})
	require.NoError(t, err)

	_, err = client.BuildPaymentURL(PaymentRequest{AmountMinor: 100})
	assert.Error(t, err)
	_, err = client.BuildPaymentURL(PaymentRequest{TxnRef: "BK1", AmountMinor: 0})
	assert.Error(t, err)

	_, err = NewClient(Config{TmnCode: "DEMO0001"})
	assert.Error(t, err)
}

func TestParseCallback(t *testing.T) {
	cb, err := ParseCallback(map[string]string{
		"vnp_TxnRef":            "BK1",
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
		"vnp_Amount":            "1800",
	})
	require.NoError(t, err)
	assert.True(t, cb.Succeeded())
	assert.Equal(t, int64(1800), cb.AmountMinor)

	cb.TransactionStatus = "02"
	assert.False(t, cb.Succeeded())

	_, err = ParseCallback(map[string]string{"vnp_TxnRef": "BK1", "vnp_ResponseCode": "00", "vnp_Amount": "abc"})
	assert.Error(t, err)
	_, err = ParseCallback(map[string]string{"vnp_TxnRef": "BK1"})
	assert.Error(t, err)
}

func copyParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
