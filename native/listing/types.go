package listing

import (
	"fmt"
	"math/big"
	"strings"
)

// Listing is a published rental offer. Once appended to the catalog it is
// never mutated or removed; the id, owner and content fields are fixed for
// the life of the ledger.
type Listing struct {
	ID          string
	Owner       [20]byte
	Name        string
	Description string
	Address     string
	Images      []string
	Price       *big.Int
}

// Clone returns a deep copy so callers can hold a listing without aliasing
// the stored instance.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Images != nil {
		clone.Images = append([]string(nil), l.Images...)
	}
	if l.Price != nil {
		clone.Price = new(big.Int).Set(l.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// SanitizeListing validates the supplied listing and returns a clone with a
// non-nil price. The text fields carry no validation beyond being valid
// strings; the price must be a non-negative amount that fits 128 bits.
func SanitizeListing(l *Listing) (*Listing, error) {
	if l == nil {
		return nil, fmt.Errorf("nil listing")
	}
	clone := l.Clone()
	if strings.TrimSpace(clone.ID) == "" {
		return nil, fmt.Errorf("listing id must not be empty")
	}
	if clone.Price.Sign() < 0 {
		return nil, fmt.Errorf("listing price must be non-negative")
	}
	if clone.Price.BitLen() > 128 {
		return nil, fmt.Errorf("listing price exceeds 128 bits")
	}
	if clone.Images == nil {
		clone.Images = []string{}
	}
	return clone, nil
}
