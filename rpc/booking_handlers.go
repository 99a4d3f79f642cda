package rpc

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kylepapili/DBnB-backend/crypto"
)

type confirmListingParams struct {
	Caller string `json:"caller"`
	Index  uint32 `json:"index"`
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
}

type confirmListingResult struct {
	Booked bool `json:"booked"`
}

type createViewingKeyParams struct {
	Caller  string `json:"caller"`
	Entropy string `json:"entropy"`
}

type createViewingKeyResult struct {
	Key string `json:"key"`
}

type getConfirmationsParams struct {
	Address  string `json:"address"`
	Key      string `json:"key"`
	Page     uint32 `json:"page"`
	PageSize uint32 `json:"pageSize"`
}

type confirmationItem struct {
	ID    string `json:"id"`
	Addr  string `json:"addr"`
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

type getConfirmationsResult struct {
	Confirmations []confirmationItem `json:"confirmations"`
}

func (s *Server) handleConfirmListing(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params confirmListingParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := crypto.DecodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid caller address: %v", err), nil)
		return
	}
	booked, err := s.node.ConfirmListing(caller, params.Index, params.Start, params.End)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, confirmListingResult{Booked: booked})
}

func (s *Server) handleCreateViewingKey(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params createViewingKeyParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := crypto.DecodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid caller address: %v", err), nil)
		return
	}
	if strings.TrimSpace(params.Entropy) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "entropy required", nil)
		return
	}
	key, err := s.node.CreateViewingKey(caller, params.Entropy)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, createViewingKeyResult{Key: key})
}

func (s *Server) handleGetConfirmations(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params getConfirmationsParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	address, err := crypto.DecodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid address: %v", err), nil)
		return
	}
	items, err := s.node.GetConfirmations(address, params.Key, params.Page, params.PageSize)
	if err != nil {
		writeDomainError(w, req.ID, err)
		return
	}
	result := getConfirmationsResult{Confirmations: make([]confirmationItem, 0, len(items))}
	for _, item := range items {
		addr := crypto.MustNewAddress(item.Addr[:])
		result.Confirmations = append(result.Confirmations, confirmationItem{
			ID:    item.ID,
			Addr:  addr.String(),
			Start: item.Start,
			End:   item.End,
		})
	}
	writeResult(w, req.ID, result)
}
