package viewingkey

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"lukechampine.com/blake3"

	"github.com/kylepapili/DBnB-backend/core/types"
)

// KeyPrefix marks every issued viewing key so clients can recognise one on
// sight.
const KeyPrefix = "api_key_"

// ErrUnauthorized is returned when a supplied viewing key does not match the
// one on record for an identity, or no key was ever created.
var ErrUnauthorized = errors.New("viewingkey: unauthorized")

var errNilState = errors.New("viewingkey: state not configured")

// storeState is the narrow view of ledger state the credential store needs.
type storeState interface {
	PRNGSeed() ([]byte, error)
	SetViewingKeyHash(identity [20]byte, hash []byte) error
	ViewingKeyHash(identity [20]byte) ([]byte, bool, error)
}

// Store issues and verifies per-identity viewing keys. Only the keccak256
// hash of a key is persisted; the plaintext is returned to the caller once at
// creation and never stored. Creating a key again for the same identity
// replaces the previous one.
type Store struct {
	state storeState
}

func NewStore() *Store {
	return &Store{}
}

// SetState configures the state backend used by the store.
func (s *Store) SetState(state storeState) { s.state = state }

// Create derives a viewing key for the request sender from the process seed,
// the block coordinates and the caller-supplied entropy, persists its hash
// and returns the plaintext key.
func (s *Store) Create(env types.Env, entropy string) (string, error) {
	if s == nil || s.state == nil {
		return "", errNilState
	}
	seed, err := s.state.PRNGSeed()
	if err != nil {
		return "", err
	}
	sender := env.Sender.Canonical()

	var heightBytes, timeBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], env.BlockHeight)
	binary.BigEndian.PutUint64(timeBytes[:], env.BlockTime)

	hasher := blake3.New(32, nil)
	hasher.Write(seed)
	hasher.Write(heightBytes[:])
	hasher.Write(timeBytes[:])
	hasher.Write(sender[:])
	hasher.Write([]byte(entropy))

	key := KeyPrefix + base64.StdEncoding.EncodeToString(hasher.Sum(nil))
	if err := s.state.SetViewingKeyHash(sender, ethcrypto.Keccak256([]byte(key))); err != nil {
		return "", err
	}
	return key, nil
}

// Verify checks the supplied key against the hash on record for the identity.
// The comparison is constant-time; a missing record fails the same way as a
// mismatch.
func (s *Store) Verify(identity [20]byte, key string) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	stored, exists, err := s.state.ViewingKeyHash(identity)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUnauthorized
	}
	supplied := ethcrypto.Keccak256([]byte(key))
	if subtle.ConstantTimeCompare(stored, supplied) != 1 {
		return ErrUnauthorized
	}
	return nil
}
