package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressHRP is the human-readable prefix for DBnB addresses.
const AddressHRP = "dbnb"

// Address represents a 20-byte DBnB address. The bech32 string form is the
// human-facing representation; the raw bytes are the canonical identity used
// as a storage key. Decoding is injective, so two distinct bech32 strings can
// never resolve to the same canonical identity.
type Address struct {
	bytes [20]byte
}

func NewAddress(b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("address must be 20 bytes, got %d", len(b))
	}
	var a Address
	copy(a.bytes[:], b)
	return a, nil
}

// MustNewAddress is a convenience for tests and fixtures with known-good input.
func MustNewAddress(b []byte) Address {
	a, err := NewAddress(b)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(AddressHRP, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Canonical returns the fixed-width identity used to key per-party storage
// namespaces.
func (a Address) Canonical() [20]byte {
	return a.bytes
}

func (a Address) Bytes() []byte {
	return a.bytes[:]
}

// DecodeAddress parses and validates a bech32 address string, yielding its
// canonical identity.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if prefix != AddressHRP {
		return Address{}, fmt.Errorf("unexpected address prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(conv)
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	addr, err := NewAddress(addrBytes)
	if err != nil {
		panic(err)
	}
	return addr
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
