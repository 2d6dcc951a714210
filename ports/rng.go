package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. Streams derived from the same (name, seed) pair are identical
// across runs, which is what makes task generation reproducible.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG for a specific run/task pair so
	// concurrent task generations never share state.
	Stream(ctx context.Context, runID, taskKey string, baseSeed int64) (*rand.Rand, error)
}
