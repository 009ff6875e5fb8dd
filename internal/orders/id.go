package orders

import (
	"context"
	"math/rand/v2"
	"strings"

	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
)

const (
	idAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength      = 12
	maxIDAttempts = 15
)

// IDGenerator draws order identifiers uniformly at random from a fixed
// alphabet. With 36^12 possible values collisions are negligible at this
// shop's volume, so optimistic generation beats a coordinated sequence; the
// attempt budget turns a pathological collision run (or a broken existence
// check) into a fast explicit failure.
type IDGenerator struct {
	alphabet string
	length   int
	attempts int
	randInt  func(n int) int
}

// NewIDGenerator returns a generator with the production alphabet and budget.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		alphabet: idAlphabet,
		length:   idLength,
		attempts: maxIDAttempts,
		randInt:  rand.IntN,
	}
}

// NewID draws one identifier without checking for collisions.
func (g *IDGenerator) NewID() string {
	var sb strings.Builder
	sb.Grow(g.length)
	for i := 0; i < g.length; i++ {
		sb.WriteByte(g.alphabet[g.randInt(len(g.alphabet))])
	}
	return sb.String()
}

// Generate draws identifiers until taken reports one free, within the attempt
// budget. The caller must run the existence check and the eventual insert in
// the same transaction; the storage uniqueness constraint stays the backstop
// for writers racing between check and insert.
func (g *IDGenerator) Generate(ctx context.Context, taken func(ctx context.Context, id string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generating order identifier")
		}
		id := g.NewID()
		exists, err := taken(ctx, id)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking order identifier")
		}
		if !exists {
			return id, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeGenerationExhausted, "order identifier space exhausted within retry budget")
}
