package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/kylepapili/DBnB-backend/crypto"
	"github.com/kylepapili/DBnB-backend/native/listing"
)

type addListingParams struct {
	Caller      string   `json:"caller"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Images      []string `json:"images"`
	Price       string   `json:"price"`
}

type addListingResult struct {
	OK bool `json:"ok"`
}

type listingItem struct {
	ID          string   `json:"id"`
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Images      []string `json:"images"`
	Price       string   `json:"price"`
}

type getListingsParams struct {
	Page     uint32 `json:"page"`
	PageSize uint32 `json:"pageSize"`
}

type getListingsResult struct {
	Listings []listingItem `json:"listings"`
	Total    uint64        `json:"total"`
}

type getIndexOfListingParams struct {
	ID string `json:"id"`
}

type getIndexOfListingResult struct {
	Index uint32 `json:"index"`
}

func listingToItem(l listing.Listing) listingItem {
	owner := crypto.MustNewAddress(l.Owner[:])
	price := l.Price
	if price == nil {
		price = big.NewInt(0)
	}
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return listingItem{
		ID:          l.ID,
		Owner:       owner.String(),
		Name:        l.Name,
		Description: l.Description,
		Address:     l.Address,
		Images:      images,
		Price:       price.String(),
	}
}

func (s *Server) handleAddListing(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addListingParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := crypto.DecodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid caller address: %v", err), nil)
		return
	}
	price := new(big.Int)
	if trimmed := strings.TrimSpace(params.Price); trimmed != "" {
		if _, ok := price.SetString(trimmed, 10); !ok || price.Sign() < 0 {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "price must be a non-negative decimal string", nil)
			return
		}
	}

	if _, err := s.node.AddListing(caller, params.Name, params.Description, params.Address, params.Images, price); err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, addListingResult{OK: true})
}

func (s *Server) handleGetListings(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params getListingsParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	items, total, err := s.node.GetListings(params.Page, params.PageSize)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	result := getListingsResult{Listings: make([]listingItem, 0, len(items)), Total: total}
	for _, item := range items {
		result.Listings = append(result.Listings, listingToItem(item))
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetIndexOfListing(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params getIndexOfListingParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	if strings.TrimSpace(params.ID) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "listing id required", nil)
		return
	}
	index, err := s.node.GetIndexOfListing(params.ID)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, getIndexOfListingResult{Index: index})
}

// decodeSingleParam unmarshals the single positional object parameter every
// dbnb method takes. It writes the invalid-params response itself and reports
// whether decoding succeeded.
func decodeSingleParam(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected a single params object", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid params: %v", err), nil)
		return false
	}
	return true
}
