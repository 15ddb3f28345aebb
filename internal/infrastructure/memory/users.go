package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/user"
)

type UserRepository struct {
	s *Store
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyExists
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now()
		u.UpdatedAt = u.CreatedAt
	}
	stored := *u
	r.s.users[u.ID] = &stored
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	return r.update(u.ID, func(stored *user.User) {
		stored.FullName = u.FullName
		stored.Phone = u.Phone
		stored.AvatarURL = u.AvatarURL
		stored.UpdatedAt = u.UpdatedAt
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.update(userID, func(stored *user.User) {
		stored.PasswordHash = passwordHash
		stored.UpdatedAt = r.s.now()
	})
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	return r.update(userID, func(stored *user.User) {
		now := r.s.now()
		stored.LastLoginAt = &now
	})
}

func (r *UserRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, isActive bool) error {
	return r.update(userID, func(stored *user.User) {
		stored.IsActive = isActive
		stored.UpdatedAt = r.s.now()
	})
}

func (r *UserRepository) update(id uuid.UUID, apply func(stored *user.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	apply(stored)
	return nil
}

func (r *UserRepository) List(ctx context.Context, req user.ListUsersRequest) ([]user.User, int, error) {
	req.SetDefaults()
	search := strings.ToLower(req.Search)

	r.s.mu.RLock()
	matched := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.FullName), search) {
			continue
		}
		matched = append(matched, *u)
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, (req.Page-1)*req.Limit, req.Limit), len(matched), nil
}
