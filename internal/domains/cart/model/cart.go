package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest là một dòng giỏ hàng do client gửi lên (chưa được tin tưởng)
type LineRequest struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

type AdjustmentKind string

const (
	// AdjustmentRemoved: book no longer exists, line dropped
	AdjustmentRemoved AdjustmentKind = "removed"
	// AdjustmentPartiallyFulfilled: quantity clamped down to stock
	AdjustmentPartiallyFulfilled AdjustmentKind = "partially_fulfilled"
	// AdjustmentOutOfStock: stock is zero, line dropped
	AdjustmentOutOfStock AdjustmentKind = "out_of_stock"
)

type Adjustment struct {
	BookID    int64          `json:"book_id"`
	Kind      AdjustmentKind `json:"kind"`
	Requested int            `json:"requested"`
	Granted   int            `json:"granted"`
}

// ReconciledLine carries the server-authoritative price at reconciliation time
type ReconciledLine struct {
	BookID    int64           `json:"book_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Reconciliation struct {
	Lines       []ReconciledLine `json:"lines"`
	Adjustments []Adjustment     `json:"adjustments"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
}

func (r *Reconciliation) HasAdjustments() bool {
	return len(r.Adjustments) > 0
}

// Removed trả về các dòng bị loại vì sách không còn tồn tại.
// Thiếu hàng (partially_fulfilled, out_of_stock) không nằm trong danh sách này.
func (r *Reconciliation) Removed() []Adjustment {
	out := make([]Adjustment, 0)
	for _, a := range r.Adjustments {
		if a.Kind == AdjustmentRemoved {
			out = append(out, a)
		}
	}
	return out
}

// LineRequests converts reconciled lines back to order input
func (r *Reconciliation) LineRequests() []LineRequest {
	out := make([]LineRequest, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, LineRequest{BookID: l.BookID, Quantity: l.Quantity})
	}
	return out
}

// CartItem là bản lưu server-side của giỏ hàng user đã đăng nhập
type CartItem struct {
	UserID    uuid.UUID `json:"user_id"`
	BookID    int64     `json:"book_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MergeLines gộp các dòng trùng book_id (cộng dồn quantity), giữ thứ tự xuất hiện đầu tiên
func MergeLines(lines []LineRequest) []LineRequest {
	index := make(map[int64]int, len(lines))
	merged := make([]LineRequest, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.BookID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.BookID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}
