package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// reportPath is the agent endpoint serving the resource report.
const reportPath = "/v1/resources"

// maxReportBodySize caps how much of an agent response is read. A resource
// report is a few hundred bytes; anything near this limit is malformed.
const maxReportBodySize = 1 << 20 // 1MB

// Report is a node agent's resource usage report as it appears on the wire.
type Report struct {
	// NodeID is the identity the agent reports for itself.
	NodeID string `json:"node_id"`

	// TotalResources maps resource names to total capacity.
	TotalResources map[string]float64 `json:"total_resources"`

	// AvailableResources maps resource names to currently free capacity.
	AvailableResources map[string]float64 `json:"available_resources"`

	// Load is the agent's scalar load metric.
	Load float64 `json:"load"`

	// CollectedAt is when the agent sampled its resources.
	CollectedAt time.Time `json:"collected_at"`
}

// Client requests resource reports from a single node agent.
//
// Clients are cheap: they share the pool's underlying HTTP client and hold
// only the target address and per-request timeout. Obtain one via
// [Pool.GetOrConnect] rather than constructing it directly.
type Client struct {
	address    string
	timeout    time.Duration
	httpClient *http.Client
}

// Address returns the agent endpoint this client talks to.
func (c *Client) Address() string {
	return c.address
}

// RequestResourceReport fetches the agent's current resource report.
//
// The request is bounded by the client's per-request timeout via context
// cancellation, so a hung agent cannot occupy a pull slot forever. Any
// non-200 response is an error; the body is read through a 1MB limit.
func (c *Client) RequestResourceReport(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s%s", c.address, reportPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReportBodySize))
		return Report{}, fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	var report Report
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReportBodySize)).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("failed to decode resource report: %w", err)
	}

	return report, nil
}
