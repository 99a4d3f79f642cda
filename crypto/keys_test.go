package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()

	encoded := addr.String()
	if !strings.HasPrefix(encoded, AddressHRP+"1") {
		t.Fatalf("unexpected address encoding: %s", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatalf("round trip mismatch: %x != %x", decoded.Bytes(), addr.Bytes())
	}
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	if _, err := DecodeAddress("nhb1qqqsyqcyq5rqwzqfpg9scrgwpugpzysnrujsuw"); err == nil {
		t.Fatal("expected error for foreign prefix")
	}
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatal("expected error for malformed string")
	}
}

func TestNewAddressLength(t *testing.T) {
	if _, err := NewAddress(make([]byte, 19)); err == nil {
		t.Fatal("expected error for short payload")
	}
	if _, err := NewAddress(make([]byte, 20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPrivateKeyBytesRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.PubKey().Address() != key.PubKey().Address() {
		t.Fatal("restored key yields different address")
	}
}
