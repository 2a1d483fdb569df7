package refreshrecords

import (
	"context"
	"sync"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by tests and as the
// reference semantics for rotation. A single mutex guards the map, so the
// status compare-and-swap in Rotate is atomic against concurrent callers.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]*models.RefreshRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*models.RefreshRecord)}
}

func (r *MemoryRepository) Create(ctx context.Context, rec *models.RefreshRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rec
	r.records[rec.TokenID] = &stored
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, tokenID string) (*models.RefreshRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[tokenID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (r *MemoryRepository) Rotate(ctx context.Context, oldTokenID string, next *models.RefreshRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.records[oldTokenID]
	if !ok || old.Status != models.RefreshStatusActive {
		return common.ErrTokenRevoked
	}

	old.Status = models.RefreshStatusRotated
	stored := *next
	r.records[next.TokenID] = &stored
	return nil
}

func (r *MemoryRepository) Revoke(ctx context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[tokenID]; ok && rec.Status == models.RefreshStatusActive {
		rec.Status = models.RefreshStatusRevoked
	}
	return nil
}

func (r *MemoryRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.UserID == userID && rec.Status == models.RefreshStatusActive {
			rec.Status = models.RefreshStatusRevoked
		}
	}
	return nil
}
