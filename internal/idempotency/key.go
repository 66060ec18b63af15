// internal/idempotency/key.go
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// keyHashLength is how many hex characters of the digest make up the key.
const keyHashLength = 16

// KeyFor derives a deterministic idempotency key from an operation prefix
// and its identifying fields. Fields are serialized canonically (JSON with
// sorted keys at every nesting level) and hashed, so identical logical
// arguments always produce the identical key regardless of the order they
// were assembled in at the call site.
//
// The returned key has the form "prefix:0123456789abcdef".
func KeyFor(prefix string, fields map[string]interface{}) (string, error) {
	payload := struct {
		Prefix string                 `json:"prefix"`
		Fields map[string]interface{} `json:"fields"`
	}{
		Prefix: prefix,
		Fields: fields,
	}

	// encoding/json sorts map keys, which gives us the canonical form.
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize idempotency key fields: %w", err)
	}

	digest := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(digest[:])[:keyHashLength], nil
}
