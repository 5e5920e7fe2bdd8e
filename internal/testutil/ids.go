package testutil

import "fmt"

// SequentialIDs generates predictable identifiers "<prefix>-0001",
// "<prefix>-0002", ... for golden comparisons.
//
// Not safe for concurrent use; tests drive it from one goroutine.
type SequentialIDs struct {
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix means "test".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "test"
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next identifier.
func (g *SequentialIDs) NewID() string {
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
