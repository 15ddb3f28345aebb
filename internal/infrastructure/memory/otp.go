package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookstore-ecommerce/internal/domains/otp/model"
	"bookstore-ecommerce/internal/domains/otp/repository"
)

// OTPRepository giữ một record cho mỗi (purpose, email); mutex thay cho WATCH/MULTI
type OTPRepository struct {
	mu      sync.Mutex
	records map[string]model.Record
	now     func() time.Time
}

var _ repository.Repository = (*OTPRepository)(nil)

func NewOTPRepository() *OTPRepository {
	return NewOTPRepositoryWithClock(time.Now)
}

func NewOTPRepositoryWithClock(now func() time.Time) *OTPRepository {
	return &OTPRepository{records: make(map[string]model.Record), now: now}
}

func (r *OTPRepository) Update(ctx context.Context, email string, purpose model.Purpose, fn repository.UpdateFunc) error {
	k := fmt.Sprintf("otp:%s:%s", purpose, email)

	r.mu.Lock()
	defer r.mu.Unlock()

	var current *model.Record
	if rec, ok := r.records[k]; ok {
		if r.now().Before(rec.RetainUntil()) {
			c := rec
			current = &c
		} else {
			delete(r.records, k)
		}
	}

	next, err := fn(current)
	if next != nil {
		r.records[k] = *next
	}
	return err
}
