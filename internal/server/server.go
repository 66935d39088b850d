package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nodepoll/nodepoll/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write
	// operation. This prevents goroutine leaks when clients are slow or
	// disconnected. Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown after context cancellation.
	shutdownTimeout = 5 * time.Second
)

// ErrNodeExists is returned by [Membership.AddNode] when the node_id is
// already part of the cluster. The server maps it to 409 Conflict.
var ErrNodeExists = errors.New("node already exists")

// Membership receives node-added and node-removed events from the HTTP
// surface. Implementations must be safe for concurrent use.
type Membership interface {
	// AddNode registers a node and returns its node_id (assigned if the
	// caller left it empty). Returns [ErrNodeExists] for a duplicate id.
	AddNode(nodeID, host string, port int) (string, error)

	// RemoveNode removes a node. Removing an unknown id is a no-op.
	RemoveNode(nodeID string)
}

// Server handles HTTP requests for the cluster resource view and
// membership management.
//
// Server provides four endpoints:
//   - GET /api/resources: Returns all node resource views as JSON
//   - GET /api/resources/sse: Server-Sent Events stream of view updates
//   - POST /api/nodes: Adds a node to the cluster
//   - DELETE /api/nodes?id=<node_id>: Removes a node from the cluster
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	membership Membership
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the cluster resource view
//   - membership: Receiver of node add/remove events
//   - port: TCP port to listen on
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, membership Membership, port int, logger *slog.Logger) *Server {
	return &Server{
		store:      st,
		membership: membership,
		port:       port,
		logger:     logger,
	}
}

// handler builds the route table. Split out from Start so tests can drive
// the handlers through httptest without binding a real port.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/resources", s.handleResources)
	mux.HandleFunc("/api/resources/sse", s.handleSSE)
	mux.HandleFunc("/api/nodes", s.handleNodes)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the
// server is listening. The server continues running until the context is
// cancelled, at which point it initiates a graceful shutdown.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.handler(),
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleResources returns all node resource views as JSON.
func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	views := s.store.GetAll()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(views); err != nil {
		s.logger.Error("failed to encode resources response", "error", err)
	}
}

// addNodeRequest is the body of POST /api/nodes. NodeID may be left empty
// to have one assigned.
type addNodeRequest struct {
	NodeID string `json:"node_id"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// addNodeResponse echoes the registered node's identity.
type addNodeResponse struct {
	NodeID string `json:"node_id"`
}

// handleNodes dispatches membership operations.
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddNode(w, r)
	case http.MethodDelete:
		s.handleRemoveNode(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAddNode registers a node and schedules it for an immediate pull.
func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	nodeID, err := s.membership.AddNode(req.NodeID, req.Host, req.Port)
	if err != nil {
		if errors.Is(err, ErrNodeExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Info("node added via api", "node_id", nodeID, "host", req.Host, "port", req.Port)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(addNodeResponse{NodeID: nodeID}); err != nil {
		s.logger.Error("failed to encode add-node response", "error", err)
	}
}

// handleRemoveNode removes a node from the cluster. Removal of an unknown
// node still answers 204: the outcome the caller asked for holds.
func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("id")
	if nodeID == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	s.membership.RemoveNode(nodeID)
	s.logger.Info("node removed via api", "node_id", nodeID)

	w.WriteHeader(http.StatusNoContent)
}

// handleSSE streams resource view updates via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients
// are slow or disconnected. Without deadlines, a blocked Fprintf call would
// prevent the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// ResponseController provides deadline-aware write and flush operations.
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some
	// ResponseWriter impls)
	deadlinesSupported := true

	// writeAndFlush writes SSE data with a deadline so a slow or
	// disconnected client times out instead of blocking the handler.
	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before the initial snapshot so no update can fall between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, view := range s.store.GetAll() {
		data, err := json.Marshal(view)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case view, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(view)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from the server context via
			// BaseContext, so this fires on both client disconnect AND
			// server shutdown
			return
		}
	}
}
