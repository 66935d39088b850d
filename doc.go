// Package nodepoll provides an embeddable resource-report poller for
// cluster managers that need an eventually-consistent view of every worker
// node's resource usage.
//
// Worker nodes do not push their state; nodepoll actively pulls a resource
// report from each node's local agent on a steady cadence while bounding
// how many pulls are in flight at once, so a large cluster never floods
// itself with report requests.
//
// # Quick Start
//
// Declare the initial nodes and start the poller with graceful shutdown:
//
//	n, _ := nodepoll.NewNode("node-1", "10.0.0.1", 9090)
//	p, _ := nodepoll.New(nodepoll.WithNode(n))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	p.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// nodepoll uses the functional options pattern for configuration:
//
//	p, err := nodepoll.New(
//	    nodepoll.WithNodes(nodes...),
//	    nodepoll.WithPollPeriod(10 * time.Second),
//	    nodepoll.WithMaxConcurrentPulls(50),
//	    nodepoll.WithPort(9090),
//	)
//
// Nodes can also join and leave at runtime via [Poller.AddNode] and
// [Poller.RemoveNode], or through the HTTP membership API. A newly added
// node is pulled as soon as capacity allows; a removed node simply drops
// out of rotation, even if a pull for it is already in flight.
//
// # Architecture
//
// nodepoll consists of several internal packages (under internal/):
//
//   - internal/poller: The admission-controlled pull scheduler
//   - internal/agent: HTTP client and connection pool for node agents
//   - internal/store: In-memory resource view with pub/sub for real-time updates
//   - internal/server: HTTP server with the view API, SSE, and membership endpoints
//
// The internal packages are not part of the public API and may change
// without notice.
package nodepoll
