package types

import "github.com/kylepapili/DBnB-backend/crypto"

// Env carries the per-request execution context the hosting environment
// stamps on every mutation: the block coordinates and the authenticated
// sender. It is threaded explicitly through the engines so identifier
// derivation stays a pure function of its inputs.
type Env struct {
	BlockHeight uint64
	BlockTime   uint64
	Sender      crypto.Address
}
