package repositories

import (
	"context"
	"fmt"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	defer r.s.lock(r.inTx)()

	for _, existing := range r.s.data.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Username, models.ErrConflict)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find("username", username, func(u models.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find("email", email, func(u models.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find("id", id, func(u models.User) bool { return u.ID == id })
}

func (r *MemoryUserRepository) find(column, value string, match func(models.User) bool) (*models.User, error) {
	defer r.s.rlock(r.inTx)()

	for _, u := range r.s.data.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with %s %s %w", column, value, models.ErrNotFound)
}
