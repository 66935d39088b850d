// Package store keeps the manager's eventually-consistent view of cluster
// resource usage.
//
// Each successful pull replaces the stored view for that node; removing a
// node from the cluster purges its view. A pub/sub mechanism pushes updates
// to subscribers in real time (used by the HTTP server's SSE stream).
package store
