package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jmoiron/sqlx"

	"quillblog/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, username, display_name, avatar_url
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// cachedUserRepository keeps recently read users in a bounded LRU.
// Misses are not cached.
type cachedUserRepository struct {
	next  UserRepository
	cache *expirable.LRU[int64, *model.User]
}

// NewCachedUserRepository wraps next with an expiring LRU of the given size.
func NewCachedUserRepository(next UserRepository, size int, ttl time.Duration) UserRepository {
	return &cachedUserRepository{
		next:  next,
		cache: expirable.NewLRU[int64, *model.User](size, nil, ttl),
	}
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if u, ok := r.cache.Get(id); ok {
		return u, nil
	}
	u, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, u)
	return u, nil
}
