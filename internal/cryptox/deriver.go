package cryptox

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Deriver owns the service-wide secret and the derivation work factor, and
// bounds how many derivations run at once. PBKDF2 is CPU-bound on purpose;
// without the bound one burst of writes could stall unrelated requests.
type Deriver struct {
	secret     []byte
	iterations int
	sem        *semaphore.Weighted
}

// NewDeriver builds a Deriver. maxConcurrent <= 0 falls back to 1.
func NewDeriver(secret []byte, iterations, maxConcurrent int) *Deriver {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Deriver{
		secret:     secret,
		iterations: iterations,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Derive computes the AES key for a user salt, waiting for a worker slot
// first. It never runs inside an open storage transaction: callers derive
// before they begin one. Returns the context error if the caller gives up
// while queued.
func (d *Deriver) Derive(ctx context.Context, salt []byte) ([]byte, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)

	return DeriveKey(d.secret, salt, d.iterations), nil
}
