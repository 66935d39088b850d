package poller

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ResourceReport is the payload of one successful pull.
//
// NodeID and Address are stamped by the scheduler from its own registry
// entry when the pull completes, so they always reflect the cluster's view
// of the node rather than whatever the agent put on the wire.
type ResourceReport struct {
	// NodeID is the registry identity of the node the report came from.
	NodeID string

	// Address is the agent endpoint the report was pulled from.
	Address string

	// TotalResources maps resource names to the node's total capacity.
	TotalResources map[string]float64

	// AvailableResources maps resource names to currently free capacity.
	AvailableResources map[string]float64

	// Load is the agent's scalar load metric.
	Load float64

	// CollectedAt is when the agent sampled its resources.
	CollectedAt time.Time
}

// ReportClient issues the resource-report request against a single node
// agent. Implementations may block on network I/O; the scheduler always
// calls RequestResourceReport from a dedicated goroutine, never from its
// run loop.
type ReportClient interface {
	RequestResourceReport(ctx context.Context) (ResourceReport, error)
}

// ClientPool hands out a [ReportClient] for a node agent address, reusing
// clients across pulls to the same node. GetOrConnect must not block on
// network I/O: it is called while the scheduler holds its lock.
type ClientPool interface {
	GetOrConnect(address string) ReportClient
}

// ResourceSink consumes the report of every successful pull. Update calls
// happen outside the scheduler's lock but from pull goroutines, so
// implementations must be safe for concurrent use and must not block.
type ResourceSink interface {
	UpdateFromResourceReport(report ResourceReport)
}

// pullState is the scheduler's per-node entry. Created on AddNode, mutated
// only by completion handling under the scheduler's lock, and forgotten
// lazily after RemoveNode.
type pullState struct {
	nodeID  string
	address string

	// lastPullTime is zero until the first successful pull completes.
	lastPullTime time.Time

	// nextPullTime is the due time: the node is not pulled again before it.
	nextPullTime time.Time
}

// Scheduler pulls resource reports from every known node on a steady
// cadence while keeping the number of in-flight pulls under a fixed bound.
//
// Nodes enter and leave the rotation via [Scheduler.AddNode] and
// [Scheduler.RemoveNode], which are safe to call from any goroutine. A
// newly added node is placed at the front of the pull queue with a due time
// of "now", so it is pulled as soon as capacity allows. After each pull the
// node is re-queued at the back with a fresh due time one poll period out,
// making the queue an approximate round-robin ring with a minimum re-poll
// interval per node.
//
// Removing a node deletes it from the registry only. A stale entry still
// sitting in the queue, or a pull already in flight for it, is discarded
// silently the next time it is observed.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	maxConcurrentPulls int
	pollPeriod         time.Duration
	tickInterval       time.Duration
	pool               ClientPool
	sink               ResourceSink
	logger             *slog.Logger
	clock              clockwork.Clock

	// wake nudges the run loop to drain the queue without waiting for the
	// next tick. Buffered with capacity 1; sends never block.
	wake chan struct{}

	// mu guards nodes, queue, inflight, and the lifecycle flags. Every
	// mutation of the scheduling state happens under this one lock,
	// regardless of which goroutine performs it.
	mu       sync.Mutex
	nodes    map[string]*pullState
	queue    *list.List // of *pullState
	inflight int
	started  bool
	stopped  bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewScheduler creates a new pull [Scheduler].
//
// Parameters:
//   - pool: Connection pool handing out per-node report clients
//   - sink: Consumer of successful resource reports
//   - pollPeriod: Minimum interval between two pulls of the same node
//   - tickInterval: Interval of the periodic drain, independent of any
//     single node's due time
//   - maxConcurrentPulls: Upper bound on simultaneously in-flight pulls
//   - logger: Logger for pull failures and stale-entry discards
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(pool ClientPool, sink ResourceSink, pollPeriod, tickInterval time.Duration, maxConcurrentPulls int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		maxConcurrentPulls: maxConcurrentPulls,
		pollPeriod:         pollPeriod,
		tickInterval:       tickInterval,
		pool:               pool,
		sink:               sink,
		logger:             logger,
		clock:              clockwork.NewRealClock(),
		wake:               make(chan struct{}, 1),
		nodes:              make(map[string]*pullState),
		queue:              list.New(),
	}
}

// AddNode registers a node and schedules it for an immediate pull.
//
// The new entry is pushed to the front of the queue with a due time of
// "now", ahead of nodes already in steady-state rotation, and the run loop
// is signalled to drain right away.
//
// Adding a node_id that is already registered is a contract violation by
// the membership feed, not a recoverable condition: AddNode panics.
// Callers that cannot trust their input must check [Scheduler.Contains]
// under their own serialization first.
func (s *Scheduler) AddNode(nodeID, address string) {
	s.mu.Lock()
	if _, exists := s.nodes[nodeID]; exists {
		s.mu.Unlock()
		panic(fmt.Sprintf("poller: node %q was added twice", nodeID))
	}

	state := &pullState{
		nodeID:       nodeID,
		address:      address,
		nextPullTime: s.clock.Now(),
	}
	s.nodes[nodeID] = state
	s.queue.PushFront(state)
	s.mu.Unlock()

	s.signalWake()
}

// RemoveNode removes a node from the registry.
//
// Removing an unknown node_id is a no-op. The queue and any in-flight pull
// are left untouched; they drop the stale entry themselves the next time
// they see it.
func (s *Scheduler) RemoveNode(nodeID string) {
	s.mu.Lock()
	delete(s.nodes, nodeID)
	s.mu.Unlock()
}

// Contains reports whether a node_id is currently registered.
func (s *Scheduler) Contains(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[nodeID]
	return ok
}

// Start begins the scheduler's run loop in a background goroutine.
//
// Start is non-blocking and returns immediately. The run loop drains the
// queue once on startup, then again on every tick and every wake signal,
// until [Scheduler.Stop] is called or the context is cancelled.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops, as is
// calling Start after Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.tryPullResourceReports(runCtx)

		ticker := s.clock.NewTicker(s.tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.Chan():
				s.tryPullResourceReports(runCtx)
			case <-s.wake:
				s.tryPullResourceReports(runCtx)
			}
		}
	}()
}

// Stop halts the run loop and waits for it to finish.
//
// Stop cancels the scheduler's context, which also cancels the requests of
// any in-flight pulls, and blocks until the run loop goroutine has exited.
// Completions that arrive after Stop returns are tolerated as no-ops.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// signalWake nudges the run loop without blocking. A signal that arrives
// while one is already pending is redundant and dropped.
func (s *Scheduler) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// tryPullResourceReports drains the queue against the concurrency gate.
//
// While capacity remains and the queue is non-empty, the front entry is
// inspected: if it is not yet due the drain stops (the front is treated as
// representative of the queue's readiness), otherwise it is popped, checked
// against the registry, and launched. Entries whose node has been removed
// are dropped here.
func (s *Scheduler) tryPullResourceReports(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	for s.inflight < s.maxConcurrentPulls && s.queue.Len() > 0 {
		front := s.queue.Front()
		state := front.Value.(*pullState)

		if now.Before(state.nextPullTime) {
			break
		}

		s.queue.Remove(front)

		if _, ok := s.nodes[state.nodeID]; !ok {
			s.logger.Debug("node was removed before its pull was issued, skipping",
				"node_id", state.nodeID)
			continue
		}

		s.pullResourceReport(ctx, state)
	}
}

// pullResourceReport launches one pull. The in-flight counter is
// incremented before the request is issued, so the admission bound holds
// across the whole node population at all times. Caller must hold s.mu.
func (s *Scheduler) pullResourceReport(ctx context.Context, state *pullState) {
	s.inflight++
	client := s.pool.GetOrConnect(state.address)

	go func() {
		report, err := client.RequestResourceReport(ctx)
		if err != nil {
			s.logger.Info("failed to pull resource report",
				"node_id", state.nodeID,
				"address", state.address,
				"error", err,
			)
			s.nodeResourceReportReceived(state, nil)
			return
		}
		s.nodeResourceReportReceived(state, &report)
	}()
}

// nodeResourceReportReceived processes a pull completion.
//
// The concurrency slot is released on every completion, success or failure,
// and the node is returned to the back of the queue with a fresh due time
// as long as it is still registered. A report for a node that was removed
// while its pull was in flight is discarded without touching the sink.
func (s *Scheduler) nodeResourceReportReceived(state *pullState, report *ResourceReport) {
	s.mu.Lock()
	s.inflight--

	if _, ok := s.nodes[state.nodeID]; !ok {
		s.mu.Unlock()
		s.logger.Debug("pull finished, but node was already removed from the cluster, ignoring",
			"node_id", state.nodeID)
		s.signalWake()
		return
	}

	now := s.clock.Now()
	if report != nil {
		state.lastPullTime = now
	}
	state.nextPullTime = now.Add(s.pollPeriod)
	s.queue.PushBack(state)
	s.mu.Unlock()

	if report != nil {
		// registry identity is authoritative over whatever the agent claimed
		report.NodeID = state.nodeID
		report.Address = state.address
		s.sink.UpdateFromResourceReport(*report)
	}

	s.signalWake()
}
