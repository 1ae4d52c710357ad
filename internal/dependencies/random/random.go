package random

import (
	"github.com/google/uuid"
)

// Random is the source of fresh identifiers: referral code suffixes and
// member ids. It can be mocked for testing.
type Random interface {
	// UUID returns a fresh random UUID in canonical string form
	UUID() string
}

// UUIDRandom implements Random with version 4 UUIDs from crypto/rand
type UUIDRandom struct{}

// New creates a new UUIDRandom
func New() *UUIDRandom {
	return &UUIDRandom{}
}

// UUID returns a version 4 UUID
func (r *UUIDRandom) UUID() string {
	return uuid.NewString()
}
