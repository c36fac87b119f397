package services

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// OrderNumberGenerator produces human-facing order numbers of the form
// ORD-<base36 unix millis>-<5 uppercase base36 chars>. The millisecond part
// is strictly increasing per generator, so numbers from one process never
// repeat; the random suffix separates processes.
type OrderNumberGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewOrderNumberGenerator uses the wall clock.
func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{now: time.Now}
}

// Next returns a fresh order number. Uniqueness is enforced by the store;
// callers retry on conflict.
func (g *OrderNumberGenerator) Next() (string, error) {
	suffix := make([]byte, 5)
	base := big.NewInt(int64(len(base36Alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}

	var b strings.Builder
	b.WriteString("ORD-")
	b.WriteString(strconv.FormatInt(g.stamp(), 36))
	b.WriteByte('-')
	b.Write(suffix)
	return b.String(), nil
}

func (g *OrderNumberGenerator) stamp() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}
