package runtime

import (
	"livechat/contract"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

type Set map[string]struct{}

type Registry struct {
	mu                sync.RWMutex
	subscribers       map[string]contract.Subscriber // map subscriber -> query and sink
	collectionMembers map[string]Set                 // map collection to subscribers
}

func NewRegistry() *Registry {
	return &Registry{
		subscribers:       make(map[string]contract.Subscriber),
		collectionMembers: make(map[string]Set),
	}
}

// GetSinksForCollection returns a copy of the live subscribers of a collection,
// keyed by subscriber id. The copy can be iterated without holding the lock.
// Returns nil if nobody follows the collection.
func (r *Registry) GetSinksForCollection(collection string) map[string]contract.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.collectionMembers[collection]
	if !ok {
		return nil
	}
	active := make(map[string]contract.Subscriber, len(members))
	for subscriberID := range members {
		if subscriber, exists := r.subscribers[subscriberID]; exists {
			active[subscriberID] = subscriber
		}
	}
	return active
}

// Subscribe registers a live subscriber on the collection of its query.
// The collection entry is created on the fly.
func (r *Registry) Subscribe(subscriberID string, subscriber contract.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers[subscriberID] = subscriber

	collection := subscriber.Query.Collection
	if _, ok := r.collectionMembers[collection]; !ok {
		r.collectionMembers[collection] = make(Set)
	}
	r.collectionMembers[collection][subscriberID] = struct{}{}
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
// Empty collection sets are dropped so the map does not grow forever.
func (r *Registry) Unsubscribe(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subscriber, ok := r.subscribers[subscriberID]
	if !ok {
		return
	}
	delete(r.subscribers, subscriberID)

	collection := subscriber.Query.Collection
	if members, ok := r.collectionMembers[collection]; ok {
		delete(members, subscriberID)
		if len(members) == 0 {
			delete(r.collectionMembers, collection)
		}
	}
}

// Len returns the number of live subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}
