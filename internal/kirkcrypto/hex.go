package kirkcrypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashHexLen is the fixed hex length of a 32-byte hash field on the wire (§6).
const HashHexLen = 64

// HexToHash32 decodes a lowercase, unprefixed, 64-char hex string into a
// 32-byte hash, rejecting anything else (§4.3 "malformed hex commitments").
func HexToHash32(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) != HashHexLen {
		return out, fmt.Errorf("kirkcrypto: hex hash must be %d chars, got %d", HashHexLen, len(s))
	}
	if strings.ToLower(s) != s {
		return out, fmt.Errorf("kirkcrypto: hex hash must be lowercase")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("kirkcrypto: invalid hex hash: %w", err)
	}
	copy(out[:], b)
	return out, nil
}

// Hash32ToHex encodes a 32-byte hash as lowercase, unprefixed hex.
func Hash32ToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}
