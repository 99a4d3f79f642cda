package core

import (
	"math/big"
	"sync"
	"time"

	"github.com/kylepapili/DBnB-backend/core/state"
	"github.com/kylepapili/DBnB-backend/core/types"
	"github.com/kylepapili/DBnB-backend/crypto"
	"github.com/kylepapili/DBnB-backend/native/booking"
	"github.com/kylepapili/DBnB-backend/native/listing"
	"github.com/kylepapili/DBnB-backend/native/viewingkey"
	"github.com/kylepapili/DBnB-backend/storage"
)

// Node bundles the ledger state and the native engines behind a single
// serialized request path: one mutation runs to completion before the next
// begins, so no engine ever observes a partially applied request.
type Node struct {
	db    storage.Database
	state *state.Manager

	listings    *listing.Engine
	bookings    *booking.Engine
	viewingKeys *viewingkey.Store

	mu    sync.Mutex
	nowFn func() uint64
}

// NewNode wires the engines over the provided database. The genesis record
// must be initialised (see InitGenesis) before mutations are accepted.
func NewNode(db storage.Database) *Node {
	manager := state.NewManager(db)

	listings := listing.NewEngine()
	listings.SetState(manager)

	keys := viewingkey.NewStore()
	keys.SetState(manager)

	bookings := booking.NewEngine()
	bookings.SetState(manager)
	bookings.SetCatalog(listings)
	bookings.SetKeyVerifier(keys)

	return &Node{
		db:          db,
		state:       manager,
		listings:    listings,
		bookings:    bookings,
		viewingKeys: keys,
		nowFn:       func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetNowFunc overrides the block-time source. Primarily intended for tests to
// provide deterministic timestamps.
func (n *Node) SetNowFunc(now func() uint64) {
	if now == nil {
		n.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	n.nowFn = now
}

// State exposes the underlying state manager for bootstrap and inspection.
func (n *Node) State() *state.Manager { return n.state }

// InitGenesis bootstraps the ledger singleton. Calling it on an initialised
// ledger returns state.ErrAlreadyInitialized.
func (n *Node) InitGenesis(owner crypto.Address, prngSeed []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.InitGenesis(owner.Canonical(), prngSeed)
}

func (n *Node) nextEnv(sender crypto.Address) (types.Env, error) {
	height, err := n.state.NextHeight()
	if err != nil {
		return types.Env{}, err
	}
	return types.Env{
		BlockHeight: height,
		BlockTime:   n.nowFn(),
		Sender:      sender,
	}, nil
}

// AddListing publishes a new listing owned by the sender and returns its
// freshly derived identifier.
func (n *Node) AddListing(sender crypto.Address, name, description, address string, images []string, price *big.Int) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	env, err := n.nextEnv(sender)
	if err != nil {
		return "", err
	}
	return n.listings.AddListing(env, name, description, address, images, price)
}

// ConfirmListing books the listing at the given catalog position for the
// sender.
func (n *Node) ConfirmListing(sender crypto.Address, index uint32, start, end uint64) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	env, err := n.nextEnv(sender)
	if err != nil {
		return false, err
	}
	return n.bookings.Confirm(env, index, start, end)
}

// CreateViewingKey issues (or replaces) the sender's viewing key.
func (n *Node) CreateViewingKey(sender crypto.Address, entropy string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	env, err := n.nextEnv(sender)
	if err != nil {
		return "", err
	}
	return n.viewingKeys.Create(env, entropy)
}

// GetListings returns one page of the public catalog, newest first, with the
// total count.
func (n *Node) GetListings(page, pageSize uint32) ([]listing.Listing, uint64, error) {
	return n.listings.Listings(page, pageSize)
}

// GetIndexOfListing resolves a listing identifier to its catalog position.
func (n *Node) GetIndexOfListing(id string) (uint32, error) {
	return n.listings.IndexOfListing(id)
}

// GetConfirmations returns one page of a party's private confirmations, gated
// by that party's viewing key.
func (n *Node) GetConfirmations(address crypto.Address, key string, page, pageSize uint32) ([]booking.Confirmation, error) {
	return n.bookings.Confirmations(address, key, page, pageSize)
}
