package model

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"
)

// Purpose phân tách các luồng OTP độc lập của cùng một email
type Purpose string

const (
	PurposeRegister      Purpose = "register"
	PurposeResetPassword Purpose = "reset_password"
)

func (p Purpose) IsValid() bool {
	return p == PurposeRegister || p == PurposeResetPassword
}

// State: none → requested → verified → consumed
type State string

const (
	StateRequested State = "requested"
	StateVerified  State = "verified"
	StateConsumed  State = "consumed"
)

// Record is the single row kept per (email, purpose). Only hashes are stored.
type Record struct {
	Email           string    `json:"email"`
	Purpose         Purpose   `json:"purpose"`
	CodeHash        string    `json:"code_hash"`
	State           State     `json:"state"`
	Attempts        int       `json:"attempts"`
	IssuedAt        time.Time `json:"issued_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	MarkerHash      string    `json:"marker_hash,omitempty"`
	MarkerExpiresAt time.Time `json:"marker_expires_at,omitempty"`
}

func (r *Record) MatchesCode(code string) bool {
	return equalHash(r.CodeHash, Hash(code))
}

func (r *Record) MatchesMarker(marker string) bool {
	return r.MarkerHash != "" && equalHash(r.MarkerHash, Hash(marker))
}

// ExpiredRetention: record hết hạn vẫn được giữ thêm để Verify trả về Expired thay vì NotFound
const ExpiredRetention = time.Hour

// RetainUntil: record phải sống tới khi cả code lẫn marker đều hết hạn, cộng ExpiredRetention
func (r *Record) RetainUntil() time.Time {
	until := r.ExpiresAt
	if r.MarkerExpiresAt.After(until) {
		until = r.MarkerExpiresAt
	}
	return until.Add(ExpiredRetention)
}

// Hash = hex(sha256(value))
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func equalHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NormalizeEmail lower-cases and trims; OTP records are keyed on the normalized form
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyResult is returned by a successful verification
type VerifyResult struct {
	Marker    string    `json:"verification_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RequestResult struct {
	ExpiresAt time.Time `json:"expires_at"`
}
