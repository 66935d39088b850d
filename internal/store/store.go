package store

import "time"

// NodeResources is the stored resource view of a single node.
//
// NodeResources is the storage representation of a node's last resource
// report, optimized for JSON serialization (used by the REST API and SSE).
// It is decoupled from the poller's internal types to allow independent
// evolution.
type NodeResources struct {
	// NodeID is the node's stable cluster identity.
	NodeID string `json:"node_id"`

	// Address is the node agent endpoint the report was pulled from.
	Address string `json:"address"`

	// TotalResources maps resource names to total capacity.
	TotalResources map[string]float64 `json:"total_resources"`

	// AvailableResources maps resource names to currently free capacity.
	AvailableResources map[string]float64 `json:"available_resources"`

	// Load is the node's scalar load metric.
	Load float64 `json:"load"`

	// CollectedAt is when the agent sampled its resources.
	CollectedAt time.Time `json:"collected_at"`

	// UpdatedAt is when the manager received the report.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for the cluster resource view.
//
// Store implementations must be safe for concurrent access: pull
// completions write from scheduler goroutines while the HTTP API reads.
// The pub/sub mechanism allows real-time updates to be pushed to connected
// clients (e.g., via Server-Sent Events).
type Store interface {
	// Update stores a node's resource view, keyed by NodeID. Subsequent
	// updates for the same node replace the previous view.
	Update(res NodeResources)

	// Get returns the stored view for a node, and whether one exists.
	Get(nodeID string) (NodeResources, bool)

	// GetAll returns all currently stored node views.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []NodeResources

	// Remove deletes a node's view. Removing an unknown node is a no-op.
	Remove(nodeID string)

	// Subscribe returns a channel that receives view updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan NodeResources

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan NodeResources)
}
