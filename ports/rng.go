package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. Sampling never touches global rand state, so two runs with
// the same seed produce identical draw sequences.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation.
	SeededStream(name string, seed int64) *rand.Rand
}
