package domain

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Clock abstracts the wall clock so timing logic stays deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real wall clock.
var SystemClock Clock = systemClock{}

// RandSource provides random number generation for proof tokens and the
// outbid simulator. The interface enables dependency injection for
// deterministic testing.
type RandSource interface {
	// Intn returns a random integer in [0, n). Panics if n <= 0.
	Intn(n int) int
}

type lockedRandSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedRandSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// NewRandSource returns a thread-safe pseudo-random source.
func NewRandSource(seed int64) RandSource {
	return &lockedRandSource{rng: rand.New(rand.NewSource(seed))}
}

// Notifier is the outbound side-effect sink for bid outcomes. Implementations
// must not mutate listing state; notifications are delivered synchronously at
// the point the outcome is determined.
type Notifier interface {
	BidAccepted(listingID string, amount decimal.Decimal)
	BidRejected(listingID string, reason error)
	// Outbid reports a simulated, non-authoritative outbid event used only
	// for urgency. It is unrelated to real bid activity.
	Outbid(listingID string)
}

// ListingSource supplies the initial catalog. The engine trusts seed bid
// histories beyond what Normalize needs to establish the invariants.
type ListingSource interface {
	LoadCatalog() ([]Listing, error)
}

const proofTokenLen = 40

// NewProofToken generates an opaque "0x…" token attached to accepted bids.
// Illustrative only; nothing verifies it.
func NewProofToken(rng RandSource) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 2, 2+proofTokenLen)
	buf[0], buf[1] = '0', 'x'
	for i := 0; i < proofTokenLen; i++ {
		buf = append(buf, hexDigits[rng.Intn(len(hexDigits))])
	}
	return string(buf)
}
