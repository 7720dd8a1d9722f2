package report

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Memo caches reports per owner and snapshot content. A new snapshot with
// the same records maps to the same key, so repeated pushes of unchanged data
// cost one hash.
type Memo struct {
	opts  Options
	cache *cache.LRUCache[Report]
}

// NewMemo creates a memo holding at most size reports for ttl each.
func NewMemo(opts Options, size int, ttl time.Duration) *Memo {
	return &Memo{opts: opts, cache: cache.NewLRUCache[Report](size, ttl)}
}

// Cache exposes the underlying cache for registration with a cache.Manager.
func (m *Memo) Cache() *cache.LRUCache[Report] {
	return m.cache
}

// Build returns the report for s and whether it came from the cache.
func (m *Memo) Build(s core.Snapshot) (Report, bool) {
	key := s.OwnerID + ":" + strconv.FormatUint(Fingerprint(s), 16)
	if r, ok := m.cache.Get(key); ok {
		return r, true
	}
	r := Build(s, m.opts)
	m.cache.Set(key, r)
	return r, false
}

// Forget drops every cached report of owner.
func (m *Memo) Forget(ownerID string) int {
	return m.cache.DeletePrefix(ownerID + ":")
}

// Fingerprint hashes the content of s that influences a report.
func Fingerprint(s core.Snapshot) uint64 {
	d := xxhash.New()
	field := func(v string) {
		_, _ = d.WriteString(v)
		_, _ = d.Write([]byte{0})
	}
	field(s.OwnerID)
	field(string(s.Profile.Currency))
	for _, tx := range s.Transactions {
		field("t")
		field(tx.ID)
		field(tx.Amount.String())
		field(tx.Category)
		field(string(tx.Type))
		if tx.Date.IsZero() {
			field("")
		} else {
			field(strconv.FormatInt(tx.Date.UnixNano(), 10))
		}
	}
	for _, b := range s.Budgets {
		field("b")
		field(b.ID)
		field(b.Category)
		field(b.Amount.String())
		field(b.Spent.String())
	}
	return d.Sum64()
}
