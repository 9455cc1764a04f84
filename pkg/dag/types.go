// Package dag implements the transaction DAG: the content-addressed
// transaction graph, its score-propagation algorithm, the tip set, and the
// weighted random walk used to pick parents for new transactions.
package dag

import (
	"encoding/hex"
	"fmt"
	"time"

	"lukechampine.com/blake3"
)

// Hash is a 32-byte content identifier. Two transactions are the same
// transaction iff their hashes match.
type Hash [32]byte

// ZeroHash is the all-zero hash, never a valid transaction id in practice
// but useful as an explicit "no value" sentinel in tests and bootstrap code.
var ZeroHash Hash

// String renders the hash as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromHex parses a hex-encoded 32-byte hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("dag: invalid hash length %d, want %d", len(b), len(h))
	}
	copy(h[:], b)
	return h, nil
}

// HashBytes computes the BLAKE3 content hash of b. Every content id in this
// module (transaction ids here, message ids in internal/network) is derived from this single
// function so the hashing scheme stays consistent across the module.
func HashBytes(b []byte) Hash {
	return Hash(blake3.Sum256(b))
}

// Timestamp is seconds since the Unix epoch.
type Timestamp uint64

func now() Timestamp {
	return Timestamp(time.Now().Unix())
}
