package utils

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReferenceGenerator produces unique, sortable reference codes for ledger
// records. ULIDs are timestamp-prefixed, so references sort by creation time.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewReferenceGenerator creates a new reference generator.
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *ReferenceGenerator) generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// TransactionRef generates a transaction reference.
// Format: TXN-{ULID}
func (g *ReferenceGenerator) TransactionRef() string {
	return "TXN-" + g.generate()
}

// ValidTransactionRef reports whether s looks like a generated transaction
// reference.
func ValidTransactionRef(s string) bool {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 || parts[0] != "TXN" {
		return false
	}
	_, err := ulid.Parse(parts[1])
	return err == nil
}
