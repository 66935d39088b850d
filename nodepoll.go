package nodepoll

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nodepoll/nodepoll/internal/agent"
	"github.com/nodepoll/nodepoll/internal/poller"
	"github.com/nodepoll/nodepoll/internal/server"
	"github.com/nodepoll/nodepoll/internal/store"
)

const (
	defaultPollPeriod         = 10 * time.Second
	defaultTickInterval       = 250 * time.Millisecond
	defaultMaxConcurrentPulls = 50
	defaultRequestTimeout     = 5 * time.Second
	defaultPort               = 8080
)

// ErrNodeExists is returned by [Poller.AddNode] when the node's id is
// already part of the cluster.
var ErrNodeExists = server.ErrNodeExists

// Poller is the main orchestrator for resource-report pulling.
//
// Poller coordinates the pull scheduler, the node agent connection pool,
// the cluster resource view, and the HTTP API. It is created with [New]
// using functional options and started with [Poller.Start].
//
// The typical lifecycle is:
//
//	p, err := nodepoll.New(nodepoll.WithNode(n))
//	if err != nil {
//	    slog.Error("failed to create poller", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	p.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type Poller struct {
	pollPeriod         time.Duration
	tickInterval       time.Duration
	maxConcurrentPulls int
	requestTimeout     time.Duration
	port               int
	logger             *slog.Logger
	reportCallbacks    []func(ResourceReport)

	mu    sync.Mutex
	nodes map[string]Node
	order []string // node ids in insertion order
	sched *poller.Scheduler
	view  *store.MemoryStore
}

// New creates a new [Poller] instance with the given options.
//
// Starting with an empty membership is valid; nodes may join later via
// [Poller.AddNode] or the HTTP membership API. Other options have sensible
// defaults:
//   - Poll period: 10 seconds
//   - Tick interval: 250 milliseconds
//   - Max concurrent pulls: 50
//   - Request timeout: 5 seconds
//   - Port: 8080
//
// Returns an error if any option is invalid or two configured nodes share
// an id.
func New(opts ...Option) (*Poller, error) {
	cfg := &pollerConfig{
		pollPeriod:         defaultPollPeriod,
		tickInterval:       defaultTickInterval,
		maxConcurrentPulls: defaultMaxConcurrentPulls,
		requestTimeout:     defaultRequestTimeout,
		port:               defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Poller{
		pollPeriod:         cfg.pollPeriod,
		tickInterval:       cfg.tickInterval,
		maxConcurrentPulls: cfg.maxConcurrentPulls,
		requestTimeout:     cfg.requestTimeout,
		port:               cfg.port,
		logger:             logger,
		reportCallbacks:    cfg.reportCallbacks,
		nodes:              make(map[string]Node, len(cfg.nodes)),
	}

	for _, n := range cfg.nodes {
		if _, exists := p.nodes[n.id]; exists {
			return nil, fmt.Errorf("duplicate node id: %q", n.id)
		}
		p.nodes[n.id] = n
		p.order = append(p.order, n.id)
	}

	return p, nil
}

// Start begins pulling resource reports and serving the HTTP API.
//
// Start is a blocking call that runs until the provided context is
// cancelled. During execution:
//
//   - Every configured node is scheduled for an immediate pull
//   - Each node is re-pulled on the configured poll period, with at most
//     the configured number of pulls in flight at once
//   - The resource view and membership API are served on the configured port
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("nodepoll starting",
		"node_count", len(p.Nodes()),
		"poll_period", p.pollPeriod.String(),
		"max_concurrent_pulls", p.maxConcurrentPulls,
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	pool := agent.NewPool(p.requestTimeout)
	view := store.NewMemoryStore()
	sched := poller.NewScheduler(
		clientPoolAdapter{pool},
		reportSink{p},
		p.pollPeriod,
		p.tickInterval,
		p.maxConcurrentPulls,
		p.logger,
	)

	// publish the collaborators, then seed the scheduler with the initial
	// membership; runtime adds flow through the same path from here on
	p.mu.Lock()
	p.view = view
	p.sched = sched
	for _, id := range p.order {
		n := p.nodes[id]
		sched.AddNode(n.id, n.Addr())
	}
	p.mu.Unlock()

	sched.Start(ctx)

	cleanup := func() {
		sched.Stop()
		pool.Close()
	}

	httpServer := server.NewServer(view, membershipAdapter{p}, p.port, p.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	p.logger.Info("nodepoll stopped")
	return nil
}

// AddNode registers a node with the cluster and schedules it for an
// immediate pull.
//
// Unlike the trusted membership feed inside the scheduler, AddNode guards
// against duplicates: adding a node whose id is already registered returns
// [ErrNodeExists]. Safe to call before or after [Poller.Start].
func (p *Poller) AddNode(n Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.nodes[n.id]; exists {
		return fmt.Errorf("%w: %q", ErrNodeExists, n.id)
	}
	p.nodes[n.id] = n
	p.order = append(p.order, n.id)

	if p.sched != nil {
		p.sched.AddNode(n.id, n.Addr())
	}
	return nil
}

// RemoveNode removes a node from the cluster and purges its resource view.
//
// Removing an unknown id is a no-op. A pull already in flight for the node
// is not interrupted; its result is discarded when it completes.
func (p *Poller) RemoveNode(nodeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.nodes[nodeID]; exists {
		delete(p.nodes, nodeID)
		for i, id := range p.order {
			if id == nodeID {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}

	if p.sched != nil {
		p.sched.RemoveNode(nodeID)
	}
	if p.view != nil {
		p.view.Remove(nodeID)
	}
}

// Nodes returns the current cluster membership in insertion order.
//
// The returned slice is a copy; modifying it does not affect the Poller.
func (p *Poller) Nodes() []Node {
	p.mu.Lock()
	defer p.mu.Unlock()

	nodes := make([]Node, 0, len(p.order))
	for _, id := range p.order {
		nodes = append(nodes, p.nodes[id])
	}
	return nodes
}

// Port returns the configured HTTP port for the resource view API.
func (p *Poller) Port() int {
	return p.port
}

// PollPeriod returns the configured minimum re-poll interval per node.
func (p *Poller) PollPeriod() time.Duration {
	return p.pollPeriod
}

// MaxConcurrentPulls returns the configured admission bound.
func (p *Poller) MaxConcurrentPulls() int {
	return p.maxConcurrentPulls
}

// clientPoolAdapter exposes the agent pool through the scheduler's
// consumer-side interface.
type clientPoolAdapter struct {
	pool *agent.Pool
}

func (a clientPoolAdapter) GetOrConnect(address string) poller.ReportClient {
	return reportClientAdapter{a.pool.GetOrConnect(address)}
}

// reportClientAdapter converts the agent's wire report into the
// scheduler's payload type.
type reportClientAdapter struct {
	client *agent.Client
}

func (a reportClientAdapter) RequestResourceReport(ctx context.Context) (poller.ResourceReport, error) {
	report, err := a.client.RequestResourceReport(ctx)
	if err != nil {
		return poller.ResourceReport{}, err
	}
	return agentReportToPollerReport(report), nil
}

// reportSink receives successful pulls from the scheduler: it updates the
// resource view first, then fires callbacks, then logs.
type reportSink struct {
	p *Poller
}

func (rs reportSink) UpdateFromResourceReport(report poller.ResourceReport) {
	p := rs.p

	p.mu.Lock()
	view := p.view
	p.mu.Unlock()

	// store update first (callbacks fire after data is persisted)
	if view != nil {
		view.Update(pollerReportToStoreView(report))
	}

	if len(p.reportCallbacks) > 0 {
		publicReport := pollerReportToPublicReport(report)
		for _, cb := range p.reportCallbacks {
			invokeCallbackSafe(cb, publicReport, p.logger)
		}
	}

	p.logger.Debug("resource report received",
		"node_id", report.NodeID,
		"address", report.Address,
		"load", report.Load,
	)
}

// membershipAdapter feeds HTTP membership events into the Poller.
type membershipAdapter struct {
	p *Poller
}

func (m membershipAdapter) AddNode(nodeID, host string, port int) (string, error) {
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	n, err := NewNode(nodeID, host, port)
	if err != nil {
		return "", err
	}
	if err := m.p.AddNode(n); err != nil {
		return "", err
	}
	return nodeID, nil
}

func (m membershipAdapter) RemoveNode(nodeID string) {
	m.p.RemoveNode(nodeID)
}

// agentReportToPollerReport converts a wire report to the scheduler's
// payload. NodeID and Address are overwritten by the scheduler from its
// registry when the pull completes.
func agentReportToPollerReport(r agent.Report) poller.ResourceReport {
	return poller.ResourceReport{
		NodeID:             r.NodeID,
		TotalResources:     copyResourceMap(r.TotalResources),
		AvailableResources: copyResourceMap(r.AvailableResources),
		Load:               r.Load,
		CollectedAt:        r.CollectedAt,
	}
}

// pollerReportToStoreView converts a completed pull to the stored view.
func pollerReportToStoreView(r poller.ResourceReport) store.NodeResources {
	return store.NodeResources{
		NodeID:             r.NodeID,
		Address:            r.Address,
		TotalResources:     r.TotalResources,
		AvailableResources: r.AvailableResources,
		Load:               r.Load,
		CollectedAt:        r.CollectedAt,
		UpdatedAt:          time.Now(),
	}
}

// pollerReportToPublicReport converts internal payload to the public API
// type. Creates defensive copies of mutable fields to prevent data races
// between callbacks.
func pollerReportToPublicReport(r poller.ResourceReport) ResourceReport {
	return ResourceReport{
		NodeID:             r.NodeID,
		Address:            r.Address,
		TotalResources:     copyResourceMap(r.TotalResources),
		AvailableResources: copyResourceMap(r.AvailableResources),
		Load:               r.Load,
		CollectedAt:        r.CollectedAt,
		ReceivedAt:         time.Now(),
	}
}

// copyResourceMap returns a shallow copy of the map, or nil if input is nil.
func copyResourceMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	cp := make(map[string]float64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// invokeCallbackSafe calls a report callback with panic recovery.
// If the callback panics, the full stack trace is logged with a
// correlation ID; the panic does not propagate to the scheduler.
func invokeCallbackSafe(cb func(ResourceReport), report ResourceReport, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			logger.Error("report callback panicked",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
				"node_id", report.NodeID,
			)
		}
	}()
	cb(report)
}
