package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kylepapili/DBnB-backend/core"
	"github.com/kylepapili/DBnB-backend/crypto"
	"github.com/kylepapili/DBnB-backend/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	node := core.NewNode(storage.NewMemDB())
	node.SetNowFunc(func() uint64 { return 1700000000 })
	if err := node.InitGenesis(testAddress(0xAA), []byte("rpc-test-seed")); err != nil {
		t.Fatalf("init genesis: %v", err)
	}
	return NewServer(node, nil)
}

func testAddress(fill byte) crypto.Address {
	b := make([]byte, 20)
	for i := range b {
		b[i] = fill
	}
	return crypto.MustNewAddress(b)
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func call(t *testing.T, server *Server, method string, params interface{}) (int, rpcReply) {
	t.Helper()
	encodedParams, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
		"params":  []json.RawMessage{encodedParams},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	server.Handler().ServeHTTP(recorder, request)

	var reply rpcReply
	if err := json.Unmarshal(recorder.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode response: %v (%s)", err, recorder.Body.String())
	}
	return recorder.Code, reply
}

func TestAddListingAndBrowse(t *testing.T) {
	server := newTestServer(t)
	owner := testAddress(0x01)

	status, reply := call(t, server, "dbnb_addListing", addListingParams{
		Caller:      owner.String(),
		Name:        "Cabin",
		Description: "A quiet cabin",
		Address:     "1 Forest Way",
		Images:      []string{"img-1", "img-2"},
		Price:       "100",
	})
	if status != http.StatusOK || reply.Error != nil {
		t.Fatalf("add listing failed: status=%d error=%+v", status, reply.Error)
	}

	status, reply = call(t, server, "dbnb_getListings", getListingsParams{Page: 0, PageSize: 10})
	if status != http.StatusOK || reply.Error != nil {
		t.Fatalf("get listings failed: status=%d error=%+v", status, reply.Error)
	}
	var listings getListingsResult
	if err := json.Unmarshal(reply.Result, &listings); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if listings.Total != 1 || len(listings.Listings) != 1 {
		t.Fatalf("unexpected result: %+v", listings)
	}
	got := listings.Listings[0]
	if got.Name != "Cabin" || got.Price != "100" || got.Owner != owner.String() {
		t.Fatalf("unexpected listing: %+v", got)
	}

	status, reply = call(t, server, "dbnb_getIndexOfListing", getIndexOfListingParams{ID: got.ID})
	if status != http.StatusOK || reply.Error != nil {
		t.Fatalf("get index failed: status=%d error=%+v", status, reply.Error)
	}
	var index getIndexOfListingResult
	if err := json.Unmarshal(reply.Result, &index); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if index.Index != 0 {
		t.Fatalf("unexpected index: %d", index.Index)
	}
}

func TestConfirmAndReadBackConfirmations(t *testing.T) {
	server := newTestServer(t)
	owner := testAddress(0x01)
	booker := testAddress(0x02)

	if status, reply := call(t, server, "dbnb_addListing", addListingParams{
		Caller: owner.String(), Name: "Cabin", Price: "100",
	}); status != http.StatusOK || reply.Error != nil {
		t.Fatalf("add listing failed: %+v", reply.Error)
	}

	status, reply := call(t, server, "dbnb_confirmListing", confirmListingParams{
		Caller: booker.String(), Index: 0, Start: 10, End: 20,
	})
	if status != http.StatusOK || reply.Error != nil {
		t.Fatalf("confirm failed: status=%d error=%+v", status, reply.Error)
	}
	var confirm confirmListingResult
	if err := json.Unmarshal(reply.Result, &confirm); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !confirm.Booked {
		t.Fatal("expected booked=true")
	}

	// Duplicate confirmation by the same party.
	status, reply = call(t, server, "dbnb_confirmListing", confirmListingParams{
		Caller: booker.String(), Index: 0, Start: 30, End: 40,
	})
	if status != http.StatusConflict || reply.Error == nil || reply.Error.Code != codeAlreadyBooked {
		t.Fatalf("expected already-booked error, got status=%d error=%+v", status, reply.Error)
	}

	status, reply = call(t, server, "dbnb_createViewingKey", createViewingKeyParams{
		Caller: booker.String(), Entropy: "some entropy",
	})
	if status != http.StatusOK || reply.Error != nil {
		t.Fatalf("create key failed: status=%d error=%+v", status, reply.Error)
	}
	var created createViewingKeyResult
	if err := json.Unmarshal(reply.Result, &created); err != nil {
		t.Fatalf("decode result: %v", err)
	}

	status, reply = call(t, server, "dbnb_getConfirmations", getConfirmationsParams{
		Address: booker.String(), Key: created.Key, Page: 0, PageSize: 10,
	})
	if status != http.StatusOK || reply.Error != nil {
		t.Fatalf("get confirmations failed: status=%d error=%+v", status, reply.Error)
	}
	var confirmations getConfirmationsResult
	if err := json.Unmarshal(reply.Result, &confirmations); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(confirmations.Confirmations) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(confirmations.Confirmations))
	}
	item := confirmations.Confirmations[0]
	if item.Addr != booker.String() || item.Start != 10 || item.End != 20 {
		t.Fatalf("unexpected confirmation: %+v", item)
	}
}

func TestGetConfirmationsWrongKey(t *testing.T) {
	server := newTestServer(t)
	booker := testAddress(0x02)

	if status, reply := call(t, server, "dbnb_createViewingKey", createViewingKeyParams{
		Caller: booker.String(), Entropy: "entropy",
	}); status != http.StatusOK || reply.Error != nil {
		t.Fatalf("create key failed: %+v", reply.Error)
	}

	status, reply := call(t, server, "dbnb_getConfirmations", getConfirmationsParams{
		Address: booker.String(), Key: "api_key_bogus", Page: 0, PageSize: 10,
	})
	if status != http.StatusUnauthorized || reply.Error == nil || reply.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized, got status=%d error=%+v", status, reply.Error)
	}
}

func TestConfirmListingOutOfRange(t *testing.T) {
	server := newTestServer(t)
	booker := testAddress(0x02)

	status, reply := call(t, server, "dbnb_confirmListing", confirmListingParams{
		Caller: booker.String(), Index: 7, Start: 10, End: 20,
	})
	if status != http.StatusNotFound || reply.Error == nil || reply.Error.Code != codeNotFound {
		t.Fatalf("expected not found, got status=%d error=%+v", status, reply.Error)
	}
}

func TestGetIndexOfListingUnknownID(t *testing.T) {
	server := newTestServer(t)
	status, reply := call(t, server, "dbnb_getIndexOfListing", getIndexOfListingParams{ID: "deadbeef"})
	if status != http.StatusNotFound || reply.Error == nil || reply.Error.Code != codeNotFound {
		t.Fatalf("expected not found, got status=%d error=%+v", status, reply.Error)
	}
}

func TestInvalidCallerAddress(t *testing.T) {
	server := newTestServer(t)
	status, reply := call(t, server, "dbnb_addListing", addListingParams{
		Caller: "not-an-address", Name: "Cabin", Price: "1",
	})
	if status != http.StatusBadRequest || reply.Error == nil || reply.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got status=%d error=%+v", status, reply.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	server := newTestServer(t)
	status, reply := call(t, server, "dbnb_unknown", struct{}{})
	if status != http.StatusNotFound || reply.Error == nil || reply.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got status=%d error=%+v", status, reply.Error)
	}
}
