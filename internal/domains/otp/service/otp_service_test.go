package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-ecommerce/internal/domains/otp/model"
	"bookstore-ecommerce/internal/domains/otp/service"
	"bookstore-ecommerce/internal/infrastructure/memory"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (c *captureSender) SendOTP(_ context.Context, email string, purpose model.Purpose, code string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.codes == nil {
		c.codes = make(map[string]string)
	}
	c.codes[email+"|"+string(purpose)] = code
	return nil
}

func (c *captureSender) last(email string, purpose model.Purpose) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email+"|"+string(purpose)]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newOTPService(t *testing.T) (service.Service, *captureSender, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	sender := &captureSender{}
	svc := service.NewOTPServiceWithClock(
		memory.NewOTPRepositoryWithClock(clk.Now),
		memory.NewCacheWithClock(clk.Now),
		sender,
		service.DefaultConfig,
		clk.Now,
	)
	return svc, sender, clk
}

const email = "reader@example.com"

func TestOTP_HappyPath(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	ctx := context.Background()

	res, err := svc.Request(ctx, "  Reader@Example.com ", model.PurposeRegister)
	require.NoError(t, err)
	assert.False(t, res.ExpiresAt.IsZero())

	code := sender.last(email, model.PurposeRegister)
	require.Len(t, code, 6)

	verified, err := svc.Verify(ctx, email, model.PurposeRegister, code)
	require.NoError(t, err)
	require.NotEmpty(t, verified.Marker)

	called := 0
	err = svc.Finalize(ctx, email, model.PurposeRegister, verified.Marker, func(context.Context) error {
		called++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, called)

	// single-use: marker và code đều không dùng lại được
	err = svc.Finalize(ctx, email, model.PurposeRegister, verified.Marker, func(context.Context) error {
		called++
		return nil
	})
	assert.ErrorIs(t, err, model.ErrOTPAlreadyConsumed)
	assert.Equal(t, 1, called)

	_, err = svc.Verify(ctx, email, model.PurposeRegister, code)
	assert.ErrorIs(t, err, model.ErrOTPAlreadyConsumed)
}

func TestOTP_ConcurrentVerifyOnlyOneWins(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, email, model.PurposeResetPassword)
	require.NoError(t, err)
	code := sender.last(email, model.PurposeResetPassword)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Verify(ctx, email, model.PurposeResetPassword, code); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestOTP_Mismatch_And_Lockout(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, email, model.PurposeRegister)
	require.NoError(t, err)
	code := sender.last(email, model.PurposeRegister)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < service.DefaultConfig.MaxAttempts; i++ {
		_, err := svc.Verify(ctx, email, model.PurposeRegister, wrong)
		assert.ErrorIs(t, err, model.ErrOTPMismatch)
	}

	_, err = svc.Verify(ctx, email, model.PurposeRegister, code)
	assert.ErrorIs(t, err, model.ErrOTPExpired)
}

func TestOTP_Expiry(t *testing.T) {
	svc, sender, clk := newOTPService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, email, model.PurposeRegister)
	require.NoError(t, err)
	code := sender.last(email, model.PurposeRegister)

	clk.Advance(service.DefaultConfig.TTL)
	_, err = svc.Verify(ctx, email, model.PurposeRegister, code)
	assert.ErrorIs(t, err, model.ErrOTPExpired)
}

func TestOTP_ReissueInvalidatesOldCode(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, email, model.PurposeRegister)
	require.NoError(t, err)
	first := sender.last(email, model.PurposeRegister)

	_, err = svc.Request(ctx, email, model.PurposeRegister)
	require.NoError(t, err)
	second := sender.last(email, model.PurposeRegister)

	if first != second {
		_, err = svc.Verify(ctx, email, model.PurposeRegister, first)
		assert.ErrorIs(t, err, model.ErrOTPMismatch)
	}
	_, err = svc.Verify(ctx, email, model.PurposeRegister, second)
	assert.NoError(t, err)
}

func TestOTP_PurposesAreIndependent(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, email, model.PurposeRegister)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, email, model.PurposeResetPassword, sender.last(email, model.PurposeRegister))
	assert.ErrorIs(t, err, model.ErrOTPNotFound)
}

func TestOTP_RateLimit(t *testing.T) {
	svc, _, clk := newOTPService(t)
	ctx := context.Background()

	for i := 0; i < service.DefaultConfig.RateLimit; i++ {
		_, err := svc.Request(ctx, email, model.PurposeRegister)
		require.NoError(t, err)
	}
	_, err := svc.Request(ctx, email, model.PurposeRegister)
	assert.ErrorIs(t, err, model.ErrOTPRateLimited)

	clk.Advance(service.DefaultConfig.RateWindow)
	_, err = svc.Request(ctx, email, model.PurposeRegister)
	assert.NoError(t, err)
}

func TestOTP_FinalizeRestoresOnActionFailure(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, email, model.PurposeRegister)
	require.NoError(t, err)
	verified, err := svc.Verify(ctx, email, model.PurposeRegister, sender.last(email, model.PurposeRegister))
	require.NoError(t, err)

	boom := errors.New("insert failed")
	err = svc.Finalize(ctx, email, model.PurposeRegister, verified.Marker, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = svc.Finalize(ctx, email, model.PurposeRegister, verified.Marker, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestOTP_FinalizeRejectsWrongMarker(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, email, model.PurposeRegister)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, email, model.PurposeRegister, sender.last(email, model.PurposeRegister))
	require.NoError(t, err)

	err = svc.Finalize(ctx, email, model.PurposeRegister, "forged", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, model.ErrOTPMarkerInvalid)
}

func TestOTP_SendFailure(t *testing.T) {
	svc, sender, _ := newOTPService(t)
	sender.err = errors.New("smtp down")

	_, err := svc.Request(context.Background(), email, model.PurposeRegister)
	assert.Error(t, err)
}
