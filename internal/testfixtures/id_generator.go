package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator yields predictable identifiers: prefixed tokens for auth
// sessions and well-formed UUIDs for rooms.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator returns a generator whose tokens start with prefix, or "id" when empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) advance() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.counter
}

// Next returns the next token, e.g. "id-1".
func (g *IDGenerator) Next() string {
	n := g.advance()
	return fmt.Sprintf("%s-%d", g.prefix, n)
}

// NextUUID returns the next version 4 shaped UUID, e.g.
// "00000000-0000-4000-8000-000000000001".
func (g *IDGenerator) NextUUID() string {
	return SequentialUUID(g.advance())
}

// NextFunc exposes Next for constructors that take a func() string.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// UUIDFunc exposes NextUUID for constructors that take a func() string.
func (g *IDGenerator) UUIDFunc() func() string {
	return g.NextUUID
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}

// SequentialUUID formats n as a valid, lexically ordered UUID.
func SequentialUUID(n uint64) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}
