package listing

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/kylepapili/DBnB-backend/core/state"
	"github.com/kylepapili/DBnB-backend/core/types"
	"github.com/kylepapili/DBnB-backend/crypto"
	"github.com/kylepapili/DBnB-backend/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	if err := mgr.InitGenesis(testAddress(0xAA).Canonical(), []byte("test-seed")); err != nil {
		t.Fatalf("init genesis: %v", err)
	}
	engine := NewEngine()
	engine.SetState(mgr)
	return engine
}

func testAddress(fill byte) crypto.Address {
	b := make([]byte, 20)
	for i := range b {
		b[i] = fill
	}
	return crypto.MustNewAddress(b)
}

func testEnv(height, blockTime uint64, sender crypto.Address) types.Env {
	return types.Env{BlockHeight: height, BlockTime: blockTime, Sender: sender}
}

func TestAddListingAppendsToBothLogs(t *testing.T) {
	engine := newTestEngine(t)
	env := testEnv(1, 1000, testAddress(0x01))

	id, err := engine.AddListing(env, "Cabin", "A quiet cabin", "1 Forest Way", []string{"img-1"}, big.NewInt(100))
	if err != nil {
		t.Fatalf("add listing: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	index, err := engine.IndexOfListing(id)
	if err != nil {
		t.Fatalf("index of listing: %v", err)
	}
	if index != 0 {
		t.Fatalf("unexpected index: %d", index)
	}

	items, total, err := engine.Listings(0, 10)
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("unexpected page: %d items, total %d", len(items), total)
	}
	got := items[0]
	if got.ID != id || got.Name != "Cabin" || got.Price.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got.Owner != testAddress(0x01).Canonical() {
		t.Fatalf("unexpected owner: %x", got.Owner)
	}
}

func TestAddListingRegistryParity(t *testing.T) {
	engine := newTestEngine(t)
	for i := 0; i < 6; i++ {
		env := testEnv(uint64(i+1), uint64(1000+i), testAddress(byte(i+1)))
		if _, err := engine.AddListing(env, fmt.Sprintf("L%d", i), "", "", nil, big.NewInt(int64(i))); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		_, total, err := engine.Listings(0, 1)
		if err != nil {
			t.Fatalf("listings: %v", err)
		}
		if total != uint64(i+1) {
			t.Fatalf("catalog length %d after %d appends", total, i+1)
		}
	}

	// Every id resolves back to its own position.
	items, _, err := engine.Listings(0, 100)
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	for i, item := range items {
		index, err := engine.IndexOfListing(item.ID)
		if err != nil {
			t.Fatalf("index of %s: %v", item.ID, err)
		}
		// items are newest first, positions are oldest first
		want := uint32(len(items) - 1 - i)
		if index != want {
			t.Fatalf("id %s resolved to %d, want %d", item.ID, index, want)
		}
	}
}

func TestListingsPagination(t *testing.T) {
	engine := newTestEngine(t)
	const total = 7
	for i := 0; i < total; i++ {
		env := testEnv(uint64(i+1), 1000, testAddress(0x01))
		if _, err := engine.AddListing(env, fmt.Sprintf("L%d", i), "", "", nil, big.NewInt(0)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	cases := []struct {
		page, pageSize uint32
		wantNames      []string
	}{
		{0, 3, []string{"L6", "L5", "L4"}},
		{1, 3, []string{"L3", "L2", "L1"}},
		{2, 3, []string{"L0"}},
		{3, 3, []string{}},
	}
	for _, tc := range cases {
		items, count, err := engine.Listings(tc.page, tc.pageSize)
		if err != nil {
			t.Fatalf("page %d: %v", tc.page, err)
		}
		if count != total {
			t.Fatalf("page %d: total %d, want %d", tc.page, count, total)
		}
		if len(items) != len(tc.wantNames) {
			t.Fatalf("page %d: %d items, want %d", tc.page, len(items), len(tc.wantNames))
		}
		for i, item := range items {
			if item.Name != tc.wantNames[i] {
				t.Fatalf("page %d item %d: %s, want %s", tc.page, i, item.Name, tc.wantNames[i])
			}
		}
	}
}

func TestListingsEmptyRegistry(t *testing.T) {
	engine := newTestEngine(t)
	items, total, err := engine.Listings(0, 10)
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty result, got %d items, total %d", len(items), total)
	}
}

func TestIndexOfListingNotFound(t *testing.T) {
	engine := newTestEngine(t)

	// Empty id log.
	if _, err := engine.IndexOfListing("deadbeef"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound on empty log, got %v", err)
	}

	env := testEnv(1, 1000, testAddress(0x01))
	if _, err := engine.AddListing(env, "Cabin", "", "", nil, big.NewInt(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.IndexOfListing("deadbeef"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound for unknown id, got %v", err)
	}
}

func TestListingAtOutOfRange(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.ListingAt(0); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestAddListingRejectsNegativePrice(t *testing.T) {
	engine := newTestEngine(t)
	env := testEnv(1, 1000, testAddress(0x01))
	if _, err := engine.AddListing(env, "Cabin", "", "", nil, big.NewInt(-1)); err == nil {
		t.Fatal("expected error for negative price")
	}
}
