// Package password implements adaptive, salted one-way password hashing on
// top of bcrypt. Hashing work is CPU-bound, so it runs through a bounded
// worker pool: callers block on a weighted semaphore instead of saturating
// the request path.
package password

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher hashes plaintext passwords and verifies candidates against stored
// hashes. Verify must take the same time whether the candidate matches or not.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)

	// DummyVerify burns one verification against a fixed hash. Authentication
	// flows call it when the account lookup fails, so "unknown email" and
	// "wrong password" are indistinguishable by timing.
	DummyVerify(ctx context.Context) error
}

// BcryptHasher is the bcrypt-backed Hasher. Cost is a configuration constant;
// the salt is generated by bcrypt per call, so identical plaintexts never
// produce identical hashes.
type BcryptHasher struct {
	cost      int
	sem       *semaphore.Weighted
	dummyHash string
}

// dummyPlaintext is only ever verified against dummyHash; it is not a secret.
const dummyPlaintext = "gatekeeper-timing-dummy"

// NewBcryptHasher creates a hasher with the given cost factor and worker-pool
// size. Non-positive arguments fall back to bcrypt.DefaultCost / one worker.
func NewBcryptHasher(cost, workers int) (*BcryptHasher, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = 1
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPlaintext), cost)
	if err != nil {
		return nil, fmt.Errorf("error precomputing dummy hash: %w", err)
	}

	return &BcryptHasher{
		cost:      cost,
		sem:       semaphore.NewWeighted(int64(workers)),
		dummyHash: string(dummy),
	}, nil
}

// Hash returns the bcrypt hash of plaintext. The call waits for a pool slot
// and honors context cancellation while waiting.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. bcrypt's comparison does not
// early-exit on the first differing byte, so mismatch position does not leak.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// DummyVerify performs one full verification against the precomputed dummy
// hash and discards the result.
func (h *BcryptHasher) DummyVerify(ctx context.Context) error {
	_, err := h.Verify(ctx, "not-"+dummyPlaintext, h.dummyHash)
	return err
}
