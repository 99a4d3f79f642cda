package booking

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kylepapili/DBnB-backend/core/types"
	"github.com/kylepapili/DBnB-backend/crypto"
	"github.com/kylepapili/DBnB-backend/native/listing"
	"github.com/kylepapili/DBnB-backend/storage"
)

var (
	errNilState   = errors.New("booking engine: state not configured")
	errNilCatalog = errors.New("booking engine: catalog not configured")
	errNilKeys    = errors.New("booking engine: credential store not configured")
	// ErrAlreadyBooked is returned when a party confirms the same listing a
	// second time.
	ErrAlreadyBooked = errors.New("booking engine: listing already booked")
)

// Confirmation binds a party to a listing for a time window. The id is the
// booked listing's identifier, not a locally unique record id. Once appended
// it is never mutated or removed.
//
// The window is stored verbatim: end before start is not rejected, and two
// different parties may hold confirmations with overlapping windows on the
// same listing. Conflict resolution happens off-ledger.
type Confirmation struct {
	ID    string
	Addr  [20]byte
	Start uint64
	End   uint64
}

// engineState is the narrow view of ledger state the confirmation ledger
// needs.
type engineState interface {
	Confirmations(identity [20]byte) *storage.AppendLog
	AttachConfirmations(identity [20]byte) (*storage.AppendLog, bool, error)
}

// catalog resolves listings by catalog position.
type catalog interface {
	ListingAt(index uint32) (*listing.Listing, error)
}

// keyVerifier gates read access to a party's confirmations.
type keyVerifier interface {
	Verify(identity [20]byte, key string) error
}

// Engine implements the per-party confirmation ledger: confirm-time duplicate
// protection and credential-gated reads.
type Engine struct {
	state   engineState
	catalog catalog
	keys    keyVerifier
}

func NewEngine() *Engine {
	return &Engine{}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCatalog configures the listing registry used to resolve positions.
func (e *Engine) SetCatalog(c catalog) { e.catalog = c }

// SetKeyVerifier configures the credential store gating confirmation reads.
func (e *Engine) SetKeyVerifier(v keyVerifier) { e.keys = v }

// Confirm books the listing at the given catalog position for the request
// sender. An out-of-range index fails with the registry's not-found error,
// propagated verbatim. A party that already holds a confirmation for the
// resolved listing fails with ErrAlreadyBooked and nothing is written.
func (e *Engine) Confirm(env types.Env, index uint32, start, end uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	if e.catalog == nil {
		return false, errNilCatalog
	}
	target, err := e.catalog.ListingAt(index)
	if err != nil {
		return false, err
	}

	sender := env.Sender.Canonical()
	log := e.state.Confirmations(sender)

	duplicate := false
	err = log.Iterate(func(i uint64, raw []byte) (bool, error) {
		var existing Confirmation
		if err := rlp.DecodeBytes(raw, &existing); err != nil {
			return false, fmt.Errorf("booking engine: decode confirmation %d: %w", i, err)
		}
		if existing.ID == target.ID {
			duplicate = true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if duplicate {
		return false, fmt.Errorf("listing %s: %w", target.ID, ErrAlreadyBooked)
	}

	record := &Confirmation{
		ID:    target.ID,
		Addr:  sender,
		Start: start,
		End:   end,
	}
	if err := log.Push(record); err != nil {
		return false, err
	}
	return true, nil
}

// Confirmations returns one page of a party's confirmation ledger in reverse
// insertion order, gated by that party's viewing key. A failed credential
// check propagates the store's unauthorized error without re-wrapping, and no
// data is returned. A party that never confirmed anything yields an empty
// page.
func (e *Engine) Confirmations(address crypto.Address, key string, page, pageSize uint32) ([]Confirmation, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.keys == nil {
		return nil, errNilKeys
	}
	identity := address.Canonical()
	if err := e.keys.Verify(identity, key); err != nil {
		return nil, err
	}

	log, exists, err := e.state.AttachConfirmations(identity)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []Confirmation{}, nil
	}
	raw, _, err := log.PageDesc(page, pageSize)
	if err != nil {
		return nil, err
	}
	items := make([]Confirmation, 0, len(raw))
	for _, encoded := range raw {
		var record Confirmation
		if err := rlp.DecodeBytes(encoded, &record); err != nil {
			return nil, fmt.Errorf("booking engine: decode confirmation: %w", err)
		}
		items = append(items, record)
	}
	return items, nil
}
