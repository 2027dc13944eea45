package i

import (
	"time"
)

// Tokenizer issues and validates the bearer tokens that grant control of a world session.
type Tokenizer interface {
	// Generate creates a signed token carrying claims that expires after expTime.
	Generate(claims map[string]interface{}, expTime time.Duration) (string, error)

	// Decode validates a token's signature, expiry and issuer, returning its claims.
	Decode(token string) (map[string]interface{}, error)
}
