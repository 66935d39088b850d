// Package agent is the client side of the node agent's resource-report
// endpoint.
//
// Each worker node runs a local agent that exposes its current resource
// usage at GET /v1/resources. [Client] performs that request for a single
// agent address; [Pool] hands out clients keyed by address so connections
// are reused across pulls. The report's wire shape is owned by the agent,
// not by the scheduler that consumes it.
package agent
