package hasher

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// RefHash computes the xxHash64 of an image's bytes and returns a hex
// string truncated to hexLen characters. Image references in session
// state and history entries are identified by this hash; 16 hex chars
// (64 bits) is collision-safe for per-session image counts.
func RefHash(data []byte, hexLen int) string {
	h := xxhash.Sum64(data)
	full := hex.EncodeToString(uint64ToBytes(h))
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
	return b
}
