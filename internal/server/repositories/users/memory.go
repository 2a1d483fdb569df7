package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by tests and as a
// reference for store semantics. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	email := NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, common.ErrDuplicateEmail
	}

	stored := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    time.Now(),
	}
	r.byEmail[email] = stored
	r.byID[stored.ID] = stored

	out := *stored
	return &out, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (r *MemoryRepository) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[userID]
	if !ok {
		return common.ErrNotFound
	}
	stored.PasswordHash = newHash
	return nil
}
