package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kylepapili/DBnB-backend/core"
	"github.com/kylepapili/DBnB-backend/native/booking"
	"github.com/kylepapili/DBnB-backend/native/listing"
	"github.com/kylepapili/DBnB-backend/native/viewingkey"
	"github.com/kylepapili/DBnB-backend/observability"
	"github.com/kylepapili/DBnB-backend/storage"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeAlreadyBooked  = -32021
)

// Server exposes the ledger operations over JSON-RPC 2.0.
type Server struct {
	node   *core.Node
	logger *slog.Logger
}

func NewServer(node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{node: node, logger: logger}
}

// Handler returns the http.Handler serving the JSON-RPC endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeDomainError maps a ledger error to its JSON-RPC status and code.
func writeDomainError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, viewingkey.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, booking.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, id, codeAlreadyBooked, err.Error(), nil)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, listing.ErrListingNotFound):
		writeError(w, http.StatusNotFound, id, codeNotFound, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	started := time.Now()

	switch req.Method {
	case "dbnb_addListing":
		s.handleAddListing(recorder, r, req)
	case "dbnb_confirmListing":
		s.handleConfirmListing(recorder, r, req)
	case "dbnb_createViewingKey":
		s.handleCreateViewingKey(recorder, r, req)
	case "dbnb_getListings":
		s.handleGetListings(recorder, r, req)
	case "dbnb_getIndexOfListing":
		s.handleGetIndexOfListing(recorder, r, req)
	case "dbnb_getConfirmations":
		s.handleGetConfirmations(recorder, r, req)
	default:
		writeError(recorder, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %s not found", req.Method), nil)
	}

	outcome := "ok"
	if recorder.status >= http.StatusBadRequest {
		outcome = "error"
	}
	observability.RPCMetrics().Observe(req.Method, outcome, time.Since(started))
	s.logger.Info("handled request",
		slog.String("method", req.Method),
		slog.Int("status", recorder.status),
		slog.Duration("duration", time.Since(started)),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
