package vnpay

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// =====================================================
// VNPAY CLIENT
// =====================================================

// vnpLocation: VNPay hiểu CreateDate/ExpireDate theo giờ Việt Nam (GMT+7)
var vnpLocation = time.FixedZone("GMT+7", 7*60*60)

type Client struct {
	config Config
	now    func() time.Time
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid VNPay config: %w", err)
	}
	if config.CurrCode == "" {
		config.CurrCode = "VND"
	}
	if config.Locale == "" {
		config.Locale = "vn"
	}
	if config.ExpireIn <= 0 {
		config.ExpireIn = 15 * time.Minute
	}
	return &Client{config: config, now: time.Now}, nil
}

func (c *Client) TmnCode() string {
	return c.config.TmnCode
}

// PaymentRequest là dữ liệu tối thiểu để tạo URL thanh toán
type PaymentRequest struct {
	TxnRef      string // order number
	AmountMinor int64  // amount x 100
	OrderInfo   string
	ClientIP    string
}

// BuildPaymentURL returns the signed redirect URL
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if req.TxnRef == "" {
		return "", fmt.Errorf("txn_ref is required")
	}
	if req.AmountMinor <= 0 {
		return "", fmt.Errorf("amount must be positive")
	}
	ip := req.ClientIP
	if ip == "" || ip == "::1" {
		ip = "127.0.0.1"
	}

	now := c.now().In(vnpLocation)
	params := map[string]string{
		"vnp_Version":    Version,
		"vnp_Command":    CommandPay,
		"vnp_TmnCode":    c.config.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.AmountMinor, 10),
		"vnp_CurrCode":   c.config.CurrCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  OrderType,
		"vnp_Locale":     c.config.Locale,
		"vnp_ReturnUrl":  c.config.ReturnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": now.Format(DateLayout),
		"vnp_ExpireDate": now.Add(c.config.ExpireIn).Format(DateLayout),
	}

	query := Canonicalize(params)
	signature := Sign(params, c.config.HashSecret)
	return c.config.PaymentURL() + "?" + query + "&" + ParamSecureHash + "=" + signature, nil
}

// Verify checks a callback signature against the configured secret
func (c *Client) Verify(params map[string]string) bool {
	return Verify(params, c.config.HashSecret)
}

// =====================================================
// CALLBACK
// =====================================================

// Callback is the parsed form of an IPN / return query
type Callback struct {
	TmnCode           string
	TxnRef            string
	AmountMinor       int64
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	PayDate           string
	OrderInfo         string
}

// Succeeded: ResponseCode "00" và TransactionStatus "00" (nếu có)
func (cb Callback) Succeeded() bool {
	if cb.ResponseCode != ResponseCodeSuccess {
		return false
	}
	return cb.TransactionStatus == "" || cb.TransactionStatus == ResponseCodeSuccess
}

func ParseCallback(params map[string]string) (*Callback, error) {
	for _, field := range []string{"vnp_TxnRef", "vnp_ResponseCode", "vnp_Amount"} {
		if params[field] == "" {
			return nil, fmt.Errorf("missing required field: %s", field)
		}
	}

	amount, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid vnp_Amount: %w", err)
	}

	return &Callback{
		TmnCode:           params["vnp_TmnCode"],
		TxnRef:            params["vnp_TxnRef"],
		AmountMinor:       amount,
		ResponseCode:      params["vnp_ResponseCode"],
		TransactionStatus: params["vnp_TransactionStatus"],
		TransactionNo:     params["vnp_TransactionNo"],
		BankCode:          params["vnp_BankCode"],
		PayDate:           params["vnp_PayDate"],
		OrderInfo:         params["vnp_OrderInfo"],
	}, nil
}

// EncodeParams renders params as a stable query string (log storage)
func EncodeParams(params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	// Encode sorts by key
	return values.Encode()
}
