package storage

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Namespace identifies an isolated logical sub-store inside a Database. A
// namespace is a root byte string plus optional suffix segments (e.g. the
// confirmations root plus a party's canonical identity). Every segment is
// length-prefixed before concatenation, so distinct (root, suffix) pairs can
// never produce the same composed key, and the result is hashed with
// keccak256 so cell keys stay fixed-width regardless of segment content.
type Namespace struct {
	prefix []byte
}

// NewNamespace builds a namespace from a root and optional suffix segments.
func NewNamespace(root []byte, segments ...[]byte) Namespace {
	size := 4 + len(root)
	for _, seg := range segments {
		size += 4 + len(seg)
	}
	prefix := make([]byte, 0, size)
	prefix = appendSegment(prefix, root)
	for _, seg := range segments {
		prefix = appendSegment(prefix, seg)
	}
	return Namespace{prefix: prefix}
}

// Key composes the storage key for a cell within the namespace.
func (n Namespace) Key(cell []byte) []byte {
	buf := make([]byte, 0, len(n.prefix)+4+len(cell))
	buf = append(buf, n.prefix...)
	buf = appendSegment(buf, cell)
	return ethcrypto.Keccak256(buf)
}

func appendSegment(buf, seg []byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(seg)))
	buf = append(buf, length[:]...)
	return append(buf, seg...)
}
