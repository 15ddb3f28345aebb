package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookstore-ecommerce/internal/domains/otp/model"
)

const maxWatchRetries = 5

type redisRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRepository(client *redis.Client) Repository {
	return &redisRepository{client: client, now: time.Now}
}

func key(email string, purpose model.Purpose) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

// Update dùng WATCH/MULTI: nếu key bị ghi bởi request khác giữa GET và EXEC thì chạy lại fn
func (r *redisRepository) Update(ctx context.Context, email string, purpose model.Purpose, fn UpdateFunc) error {
	k := key(email, purpose)

	var result error
	txf := func(tx *redis.Tx) error {
		result = nil

		var current *model.Record
		data, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("get otp record: %w", err)
		default:
			current = &model.Record{}
			if err := json.Unmarshal(data, current); err != nil {
				return fmt.Errorf("decode otp record: %w", err)
			}
		}

		next, fnErr := fn(current)
		result = fnErr
		if next == nil {
			return nil
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode otp record: %w", err)
		}
		ttl := next.RetainUntil().Sub(r.now())
		if ttl < time.Second {
			ttl = time.Second
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, txf, k)
		if err == nil {
			return result
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("otp update: too much contention on %s", k)
}
