package nodepoll

import "time"

// ResourceReport is the outcome of one successful pull, as delivered to
// report callbacks registered via [WithReportCallback].
type ResourceReport struct {
	// NodeID is the cluster identity of the node the report came from.
	NodeID string

	// Address is the agent endpoint the report was pulled from.
	Address string

	// TotalResources maps resource names to the node's total capacity.
	TotalResources map[string]float64

	// AvailableResources maps resource names to currently free capacity.
	AvailableResources map[string]float64

	// Load is the node's scalar load metric.
	Load float64

	// CollectedAt is when the agent sampled its resources.
	CollectedAt time.Time

	// ReceivedAt is when the manager processed the report.
	ReceivedAt time.Time
}
