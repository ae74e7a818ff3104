package testfixtures

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out "<prefix>-<n>" identifiers, or UUIDs derived from
// them, so assertions on ids stay stable between runs.
type IDGenerator struct {
	prefix string
	seq    atomic.Uint64
}

// NewIDGenerator defaults an empty prefix to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.seq.Add(1), 10)
}

// NextUUID is a SHA-1 name-based UUID of Next, for code paths that parse ids.
func (g *IDGenerator) NextUUID() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(g.Next())).String()
}

// NextFunc is the injectable form of Next. A nil generator yields empty ids.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetCounter rewinds or skips the sequence; the next id is counter+1.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.seq.Store(counter)
}
