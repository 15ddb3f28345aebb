package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/session/model"
	"bookstore-ecommerce/internal/domains/session/repository"
)

type SessionRepository struct {
	s *Store
}

var _ repository.Repository = (*SessionRepository)(nil)

func (r *SessionRepository) Insert(ctx context.Context, sess *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.insertLocked(sess)
	return nil
}

// insertLocked: caller giữ r.s.mu
func (r *SessionRepository) insertLocked(sess *model.Session) {
	if sess.DeviceClass != nil {
		for hash, existing := range r.s.sessions {
			if existing.UserID == sess.UserID && existing.DeviceClass != nil && *existing.DeviceClass == *sess.DeviceClass {
				delete(r.s.sessions, hash)
			}
		}
	}
	stored := *sess
	r.s.sessions[sess.TokenHash] = &stored
}

func (r *SessionRepository) Rotate(ctx context.Context, tokenHash string, fn repository.RotateFunc) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var current *model.Session
	if stored, ok := r.s.sessions[tokenHash]; ok {
		c := *stored
		current = &c
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil || current == nil {
		return nil
	}

	delete(r.s.sessions, tokenHash)
	r.insertLocked(next)
	return nil
}

func (r *SessionRepository) DeleteByHash(ctx context.Context, tokenHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.sessions[tokenHash]
	delete(r.s.sessions, tokenHash)
	return ok, nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.deleteWhere(func(sess *model.Session) bool { return sess.UserID == userID }), nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(sess *model.Session) bool { return sess.IsExpired(now) }), nil
}

func (r *SessionRepository) deleteWhere(match func(*model.Session) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for hash, sess := range r.s.sessions {
		if match(sess) {
			delete(r.s.sessions, hash)
			n++
		}
	}
	return n
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	r.s.mu.RLock()
	result := make([]model.Session, 0)
	for _, sess := range r.s.sessions {
		if sess.UserID == userID {
			result = append(result, *sess)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}
