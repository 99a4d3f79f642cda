package listing

import (
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// NewID derives a fresh listing identifier from the process seed and the
// per-request entropy: block height and block time in big-endian order plus
// the caller's canonical identity, bracketed by the process seed. The
// derivation is a pure function of its inputs, so replaying the same request
// yields the same identifier, while an observer without the seed cannot
// predict the next one. No uniqueness check is performed against existing
// identifiers; the 256-bit output width makes collisions astronomically
// unlikely.
func NewID(seed []byte, height, blockTime uint64, sender [20]byte) string {
	var heightBytes, timeBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], height)
	binary.BigEndian.PutUint64(timeBytes[:], blockTime)

	hasher := blake3.New(32, nil)
	hasher.Write(seed)
	hasher.Write(heightBytes[:])
	hasher.Write(timeBytes[:])
	hasher.Write(sender[:])
	hasher.Write(seed)

	return hex.EncodeToString(hasher.Sum(nil))
}
