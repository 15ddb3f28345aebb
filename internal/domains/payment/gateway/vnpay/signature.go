package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// =====================================================
// VNPAY SIGNATURE
// =====================================================

const (
	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"
)

// Canonicalize builds the string that is signed, both for outbound URLs and inbound callbacks:
//  1. drop vnp_SecureHash, vnp_SecureHashType and empty values
//  2. sort keys ascending (byte order)
//  3. urlencode(key)=urlencode(value) joined by '&' (PHP urlencode: space -> '+')
//
// Values must be decoded (as delivered by url.ParseQuery / gin).
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == ParamSecureHash || k == ParamSecureHashType || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(phpURLEncode(k))
		b.WriteByte('=')
		b.WriteString(phpURLEncode(params[k]))
	}
	return b.String()
}

// Sign = uppercase hex(HMAC-SHA512(secret, Canonicalize(params)))
func Sign(params map[string]string, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(Canonicalize(params)))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// Verify recomputes the signature and compares in constant time
func Verify(params map[string]string, secret string) bool {
	received := params[ParamSecureHash]
	if received == "" {
		return false
	}
	expected := Sign(params, secret)
	return hmac.Equal([]byte(strings.ToUpper(received)), []byte(expected))
}

// phpURLEncode encodes string like PHP's urlencode()
// Go url.QueryEscape: spaces become '+' already, '~' is left alone; PHP encodes '~' as %7E
func phpURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}

// FromValues keeps the first value of every vnp_* key
func FromValues(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for key, vals := range values {
		if strings.HasPrefix(key, "vnp_") && len(vals) > 0 {
			params[key] = vals[0]
		}
	}
	return params
}
