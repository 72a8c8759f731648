package testutil

import (
	"fmt"
	"sync"
)

// SequenceTokenGenerator hands out predictable batch tokens.
//
// Tokens are "<prefix>-0001", "<prefix>-0002", ... so golden output that
// includes them stays byte-identical between runs.
//
// Thread-safety: safe for concurrent use.
type SequenceTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokenGenerator creates a generator. An empty prefix becomes
// "test-batch".
func NewSequenceTokenGenerator(prefix string) *SequenceTokenGenerator {
	if prefix == "" {
		prefix = "test-batch"
	}
	return &SequenceTokenGenerator{prefix: prefix}
}

// Generate returns the next token.
//
// Implements ingest.TokenGenerator interface.
func (g *SequenceTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequenceTokenGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
