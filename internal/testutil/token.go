// Package testutil holds shared helpers for deterministic tests.
package testutil

// ConstantTokenGenerator returns the same session token every time.
//
// This enables deterministic replay tests and golden comparison: the same
// scenario with the same ConstantTokenGenerator produces byte-identical
// transition logs.
//
// Thread-safety: ConstantTokenGenerator is stateless and safe for
// concurrent use.
type ConstantTokenGenerator struct {
	token string
}

// NewConstantTokenGenerator creates a generator for the given token.
// If token is empty, Generate() returns "test-session-default".
func NewConstantTokenGenerator(token string) *ConstantTokenGenerator {
	if token == "" {
		token = "test-session-default"
	}
	return &ConstantTokenGenerator{token: token}
}

// Generate returns the fixed session token.
//
// Implements store.TokenGenerator.
func (g *ConstantTokenGenerator) Generate() string {
	return g.token
}
