package listing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kylepapili/DBnB-backend/core/types"
	"github.com/kylepapili/DBnB-backend/storage"
)

var (
	errNilState = errors.New("listing engine: state not configured")
	// ErrListingNotFound is returned when an identifier lookup exhausts the
	// id log without a match.
	ErrListingNotFound = errors.New("listing engine: listing not found")
)

// engineState is the narrow view of ledger state the registry needs.
type engineState interface {
	Listings() *storage.AppendLog
	AttachListings() (*storage.AppendLog, bool, error)
	ListingIDs() *storage.AppendLog
	AttachListingIDs() (*storage.AppendLog, bool, error)
	PRNGSeed() ([]byte, error)
}

// Engine implements the listing registry: an append-only catalog of offers
// plus the parallel identifier log appended in lock-step, so the two logs
// have equal length at every request boundary.
type Engine struct {
	state engineState
}

func NewEngine() *Engine {
	return &Engine{}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// AddListing derives a fresh identifier from the request environment, appends
// the listing to the catalog and its id to the identifier log, and returns
// the new id.
func (e *Engine) AddListing(env types.Env, name, description, address string, images []string, price *big.Int) (string, error) {
	if e == nil || e.state == nil {
		return "", errNilState
	}
	seed, err := e.state.PRNGSeed()
	if err != nil {
		return "", err
	}
	sender := env.Sender.Canonical()
	id := NewID(seed, env.BlockHeight, env.BlockTime, sender)

	sanitized, err := SanitizeListing(&Listing{
		ID:          id,
		Owner:       sender,
		Name:        name,
		Description: description,
		Address:     address,
		Images:      images,
		Price:       price,
	})
	if err != nil {
		return "", err
	}

	if err := e.state.Listings().Push(sanitized); err != nil {
		return "", err
	}
	if err := e.state.ListingIDs().Push(id); err != nil {
		return "", err
	}
	return id, nil
}

// ListingAt resolves the listing at the given catalog position. An index at
// or past the end fails with the log's not-found error, propagated verbatim.
func (e *Engine) ListingAt(index uint32) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record := new(Listing)
	if err := e.state.Listings().GetAt(uint64(index), record); err != nil {
		return nil, err
	}
	return record, nil
}

// Listings returns one page of the catalog in reverse insertion order (most
// recent first) together with the total count. A catalog that has never been
// written yields an empty page and zero, and paging past the end yields an
// empty page, never an error.
func (e *Engine) Listings(page, pageSize uint32) ([]Listing, uint64, error) {
	if e == nil || e.state == nil {
		return nil, 0, errNilState
	}
	log, exists, err := e.state.AttachListings()
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return []Listing{}, 0, nil
	}
	raw, total, err := log.PageDesc(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := make([]Listing, 0, len(raw))
	for _, encoded := range raw {
		var record Listing
		if err := rlp.DecodeBytes(encoded, &record); err != nil {
			return nil, 0, fmt.Errorf("listing engine: decode listing: %w", err)
		}
		items = append(items, record)
	}
	return items, total, nil
}

// IndexOfListing scans the identifier log for the first position holding the
// given id. The scan is O(n), acceptable at this ledger's scale.
func (e *Engine) IndexOfListing(id string) (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	log, exists, err := e.state.AttachListingIDs()
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("listing engine: id log empty: %w", ErrListingNotFound)
	}
	found := false
	var position uint64
	err = log.Iterate(func(index uint64, raw []byte) (bool, error) {
		var candidate string
		if err := rlp.DecodeBytes(raw, &candidate); err != nil {
			return false, fmt.Errorf("listing engine: decode id at %d: %w", index, err)
		}
		if candidate == id {
			found = true
			position = index
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("listing engine: id %s: %w", id, ErrListingNotFound)
	}
	return uint32(position), nil
}
