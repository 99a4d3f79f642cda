package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kylepapili/DBnB-backend/storage"
)

var (
	// ErrNotInitialized is returned when the genesis record is read before
	// InitGenesis has run.
	ErrNotInitialized = errors.New("state: ledger not initialized")
	// ErrAlreadyInitialized is returned when InitGenesis is called twice.
	ErrAlreadyInitialized = errors.New("state: ledger already initialized")
)

var (
	genesisCell = []byte("state")
	heightCell  = []byte("height")
)

// Genesis is the process-wide singleton written once at initialisation: the
// deploying identity and the seed material for identifier derivation. It is
// read-only afterwards.
type Genesis struct {
	Owner    [20]byte
	PRNGSeed []byte
}

// Manager provides namespaced access to the ledger's persistent state: the
// listing catalog, its parallel identifier log, per-party confirmation logs
// and viewing-key cells. All mutation flows through the single serialized
// request path, so the manager holds no locks of its own.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// InitGenesis writes the singleton genesis record. It fails with
// ErrAlreadyInitialized if the ledger has been bootstrapped before.
func (m *Manager) InitGenesis(owner [20]byte, prngSeed []byte) error {
	if len(prngSeed) == 0 {
		return fmt.Errorf("state: prng seed must not be empty")
	}
	ns := storage.NewNamespace(configNamespaceRoot)
	key := ns.Key(genesisCell)
	exists, err := m.db.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	encoded, err := rlp.EncodeToBytes(&Genesis{Owner: owner, PRNGSeed: prngSeed})
	if err != nil {
		return fmt.Errorf("state: encode genesis: %w", err)
	}
	return m.db.Put(key, encoded)
}

// Genesis loads the singleton genesis record.
func (m *Manager) Genesis() (*Genesis, error) {
	ns := storage.NewNamespace(configNamespaceRoot)
	raw, err := m.db.Get(ns.Key(genesisCell))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNotInitialized
	}
	genesis := new(Genesis)
	if err := rlp.DecodeBytes(raw, genesis); err != nil {
		return nil, fmt.Errorf("state: decode genesis: %w", err)
	}
	return genesis, nil
}

// PRNGSeed returns the seed material fixed at initialisation.
func (m *Manager) PRNGSeed() ([]byte, error) {
	genesis, err := m.Genesis()
	if err != nil {
		return nil, err
	}
	return genesis.PRNGSeed, nil
}

// NextHeight advances and returns the request height counter. The counter is
// persisted so heights stay monotonic across restarts.
func (m *Manager) NextHeight() (uint64, error) {
	ns := storage.NewNamespace(configNamespaceRoot)
	key := ns.Key(heightCell)
	raw, err := m.db.Get(key)
	if err != nil {
		return 0, err
	}
	var current uint64
	if len(raw) == 8 {
		current = binary.BigEndian.Uint64(raw)
	}
	next := current + 1
	var encoded [8]byte
	binary.BigEndian.PutUint64(encoded[:], next)
	if err := m.db.Put(key, encoded[:]); err != nil {
		return 0, err
	}
	return next, nil
}

// Listings opens the listing catalog log, creating it lazily on first append.
func (m *Manager) Listings() *storage.AppendLog {
	return storage.AttachOrCreateLog(m.db, storage.NewNamespace(listingsNamespaceRoot))
}

// AttachListings opens the listing catalog log and reports whether it has
// ever been written.
func (m *Manager) AttachListings() (*storage.AppendLog, bool, error) {
	return storage.AttachLog(m.db, storage.NewNamespace(listingsNamespaceRoot))
}

// ListingIDs opens the identifier log appended in lock-step with Listings.
func (m *Manager) ListingIDs() *storage.AppendLog {
	return storage.AttachOrCreateLog(m.db, storage.NewNamespace(listingIDsNamespaceRoot))
}

// AttachListingIDs opens the identifier log and reports whether it has ever
// been written.
func (m *Manager) AttachListingIDs() (*storage.AppendLog, bool, error) {
	return storage.AttachLog(m.db, storage.NewNamespace(listingIDsNamespaceRoot))
}

// Confirmations opens the private confirmation log of one party, creating it
// lazily on first append.
func (m *Manager) Confirmations(identity [20]byte) *storage.AppendLog {
	return storage.AttachOrCreateLog(m.db, storage.NewNamespace(confirmationsNamespaceRoot, identity[:]))
}

// AttachConfirmations opens one party's confirmation log and reports whether
// it has ever been written. An absent log reads as zero records.
func (m *Manager) AttachConfirmations(identity [20]byte) (*storage.AppendLog, bool, error) {
	return storage.AttachLog(m.db, storage.NewNamespace(confirmationsNamespaceRoot, identity[:]))
}

// SetViewingKeyHash stores the hash of a party's viewing key, replacing any
// previous value.
func (m *Manager) SetViewingKeyHash(identity [20]byte, hash []byte) error {
	ns := storage.NewNamespace(viewingKeyNamespaceRoot)
	return m.db.Put(ns.Key(identity[:]), hash)
}

// ViewingKeyHash loads the stored viewing-key hash for a party. The boolean
// reports whether a key has ever been created.
func (m *Manager) ViewingKeyHash(identity [20]byte) ([]byte, bool, error) {
	ns := storage.NewNamespace(viewingKeyNamespaceRoot)
	raw, err := m.db.Get(ns.Key(identity[:]))
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	return raw, true, nil
}
