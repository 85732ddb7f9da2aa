package utils

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a session or table ID. IDs made in the same millisecond
// still sort in creation order.
func NewULID() (ulid.ULID, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Now(), entropy)
	if err != nil {
		return ulid.ULID{}, err
	}
	return id, nil
}
