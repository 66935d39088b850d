package store

import (
	"sync"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe
// mechanism for real-time updates. Views are keyed by node_id, with new
// reports replacing previous values.
//
// Subscribers receive updates via buffered channels (buffer size 100).
// Updates are sent non-blocking; if a subscriber's buffer is full, the
// update is dropped for that subscriber to prevent blocking the pull path.
type MemoryStore struct {
	mu          sync.RWMutex
	views       map[string]NodeResources
	subscribers map[chan NodeResources]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		views:       make(map[string]NodeResources),
		subscribers: make(map[chan NodeResources]struct{}),
	}
}

// Update stores a node's resource view and notifies all subscribers.
func (m *MemoryStore) Update(res NodeResources) {
	m.mu.Lock()
	m.views[res.NodeID] = res
	m.mu.Unlock()

	m.notifySubscribers(res)
}

// Get returns the stored view for a node, and whether one exists.
func (m *MemoryStore) Get(nodeID string) (NodeResources, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res, ok := m.views[nodeID]
	return res, ok
}

// GetAll returns a snapshot of all currently stored node views.
//
// The returned slice is a copy; modifications do not affect the store.
// Order is not guaranteed.
func (m *MemoryStore) GetAll() []NodeResources {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]NodeResources, 0, len(m.views))
	for _, res := range m.views {
		results = append(results, res)
	}
	return results
}

// Remove deletes a node's view. Subscribers are not notified of removals;
// consumers discover them through membership, not through the view stream.
func (m *MemoryStore) Remove(nodeID string) {
	m.mu.Lock()
	delete(m.views, nodeID)
	m.mu.Unlock()
}

// Subscribe creates a new subscription and returns a channel for receiving
// view updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan NodeResources {
	ch := make(chan NodeResources, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// updates will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan NodeResources) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the view to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the
// message is dropped for that subscriber rather than blocking the update path.
func (m *MemoryStore) notifySubscribers(res NodeResources) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- res:
		default:
			// subscriber is slow, drop the message
		}
	}
}
