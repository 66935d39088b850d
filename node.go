package nodepoll

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Node identifies one worker node and the endpoint of its local agent.
//
// Node is immutable after creation via [NewNode]. All fields are private
// with getter methods, ensuring a node cannot be modified once it has been
// handed to a [Poller].
type Node struct {
	id   string
	host string
	port int
}

// NewNode creates a [Node] with the given identity and agent endpoint.
//
// The id must be unique across the cluster; adding two nodes with the same
// id to a [Poller] fails. The host may be a hostname, an IPv4 address, or
// an IPv6 address.
//
// Returns an error if the id or host is empty, or the port is outside the
// valid range (1-65535).
func NewNode(id, host string, port int) (Node, error) {
	if id == "" {
		return Node{}, errors.New("node id cannot be empty")
	}
	if host == "" {
		return Node{}, errors.New("node host cannot be empty")
	}
	if port < 1 || port > 65535 {
		return Node{}, fmt.Errorf("node port must be between 1 and 65535, got %d", port)
	}

	return Node{id: id, host: host, port: port}, nil
}

// ID returns the node's stable unique identifier.
func (n Node) ID() string {
	return n.id
}

// Host returns the host part of the node agent's endpoint.
func (n Node) Host() string {
	return n.host
}

// Port returns the port part of the node agent's endpoint.
func (n Node) Port() int {
	return n.port
}

// Addr returns the node agent's endpoint as "host:port", with IPv6 hosts
// bracketed.
func (n Node) Addr() string {
	return net.JoinHostPort(n.host, strconv.Itoa(n.port))
}
