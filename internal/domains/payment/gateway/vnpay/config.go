package vnpay

import (
	"fmt"
	"strings"
	"time"
)

// =====================================================
// VNPAY CONFIGURATION
// =====================================================

const (
	Version     = "2.1.0"
	CommandPay  = "pay"
	OrderType   = "other"
	DateLayout  = "20060102150405"
	paymentPath = "/vpcpay.html"
)

type Config struct {
	TmnCode    string        // Merchant code (provided by VNPay)
	HashSecret string        // Secret key for HMAC-SHA512 signature
	APIUrl     string        // VNPay payment gateway URL
	ReturnURL  string        // Browser return URL
	CurrCode   string        // default: "VND"
	Locale     string        // default: "vn"
	ExpireIn   time.Duration // vnp_ExpireDate = CreateDate + ExpireIn
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.TmnCode == "" {
		return fmt.Errorf("VNPay TmnCode is required")
	}
	if c.HashSecret == "" {
		return fmt.Errorf("VNPay HashSecret is required")
	}
	if c.APIUrl == "" {
		return fmt.Errorf("VNPay APIUrl is required")
	}
	if c.ReturnURL == "" {
		return fmt.Errorf("VNPay ReturnURL is required")
	}
	return nil
}

// PaymentURL returns the full redirect endpoint
func (c *Config) PaymentURL() string {
	if strings.HasSuffix(c.APIUrl, paymentPath) {
		return c.APIUrl
	}
	return strings.TrimRight(c.APIUrl, "/") + paymentPath
}
