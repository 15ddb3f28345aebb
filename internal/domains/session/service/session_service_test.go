package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-ecommerce/internal/domains/session/model"
	"bookstore-ecommerce/internal/domains/session/service"
	"bookstore-ecommerce/internal/infrastructure/memory"
)

const refreshTTL = 7 * 24 * time.Hour

func newSessionService(now *time.Time) service.Service {
	store := memory.NewStore()
	return service.NewSessionServiceWithClock(store.Sessions(), refreshTTL, func() time.Time { return *now })
}

func TestRotate_OldTokenStopsWorking(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := newSessionService(&now)
	ctx := context.Background()
	user := uuid.New()

	issued, err := svc.Issue(ctx, user, model.Meta{DeviceClass: "web", UserAgent: "Firefox", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEqual(t, issued.Token, issued.Session.TokenHash)
	assert.Equal(t, service.HashToken(issued.Token), issued.Session.TokenHash)

	now = now.Add(time.Hour)
	rotated, err := svc.Rotate(ctx, issued.Token)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Token, rotated.Token)
	assert.Equal(t, user, rotated.Session.UserID)
	assert.Equal(t, now.Add(refreshTTL), rotated.Session.ExpiresAt)

	_, err = svc.Rotate(ctx, issued.Token)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	sessions, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestRotate_ConcurrentReplayOnlyOneWins(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := newSessionService(&now)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, uuid.New(), model.Meta{})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Rotate(ctx, issued.Token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRotate_Expired(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := newSessionService(&now)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, uuid.New(), model.Meta{})
	require.NoError(t, err)

	now = now.Add(refreshTTL)
	_, err = svc.Rotate(ctx, issued.Token)
	assert.ErrorIs(t, err, model.ErrSessionExpired)

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIssue_OneSessionPerDeviceClass(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := newSessionService(&now)
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.Issue(ctx, user, model.Meta{DeviceClass: "mobile"})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, user, model.Meta{DeviceClass: "mobile"})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, user, model.Meta{DeviceClass: "web"})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, user, model.Meta{})
	require.NoError(t, err)

	sessions, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	_, err = svc.Rotate(ctx, first.Token)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestRevoke(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := newSessionService(&now)
	ctx := context.Background()
	user := uuid.New()

	a, err := svc.Issue(ctx, user, model.Meta{DeviceClass: "web"})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, user, model.Meta{DeviceClass: "mobile"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, a.Token))
	assert.ErrorIs(t, svc.Revoke(ctx, a.Token), model.ErrSessionNotFound)

	n, err := svc.RevokeAll(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
