package agent

import (
	"net/http"
	"sync"
	"time"
)

// connection pooling limits to prevent resource exhaustion when pulling
// from many node agents
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// Pool hands out a [Client] per agent address, creating one on first use
// and reusing it afterwards.
//
// All clients share a single pooled HTTP transport, so "connecting" is a
// map insertion and never blocks on the network; actual connections are
// established lazily by the first request and kept alive between pulls.
// Pool is safe for concurrent use.
type Pool struct {
	timeout    time.Duration
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool creates a connection [Pool] whose clients apply the given
// per-request timeout.
//
// The shared transport keeps at most two connections per agent; a manager
// pulls each node serially, so more would only waste sockets.
func NewPool(timeout time.Duration) *Pool {
	return &Pool{
		timeout: timeout,
		httpClient: &http.Client{
			// no global timeout - requests are bounded per-call via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false,
			},
		},
		clients: make(map[string]*Client),
	}
}

// GetOrConnect returns the client for an agent address, creating it if the
// address has not been seen before.
func (p *Pool) GetOrConnect(address string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.clients[address]
	if !ok {
		c = &Client{
			address:    address,
			timeout:    p.timeout,
			httpClient: p.httpClient,
		}
		p.clients[address] = c
	}
	return c
}

// Close closes all idle connections held by the shared transport.
//
// Call this once no more pulls will be issued. Safe to call multiple
// times; the pool remains usable afterwards, new connections are simply
// re-established on demand.
func (p *Pool) Close() {
	if p == nil || p.httpClient == nil {
		return
	}
	if transport, ok := p.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
