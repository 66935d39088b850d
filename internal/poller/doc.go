// Package poller implements the admission-controlled pull scheduler that
// keeps the cluster's resource view fresh.
//
// The scheduler tracks the set of known nodes, decides on each tick which
// nodes are due for a resource-report pull, bounds how many pulls are in
// flight at once, and reschedules each node after its pull completes. The
// registry, the pull queue, and the in-flight counter are guarded by a
// single mutex so that membership events arriving from foreign goroutines
// never race with the scheduler's own run loop.
//
// The transport, the connection pool, and the report consumer are external
// collaborators expressed as small interfaces ([ReportClient], [ClientPool],
// [ResourceSink]); this package never performs network I/O itself.
package poller
