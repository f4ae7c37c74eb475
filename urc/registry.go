package urc

import (
	"slices"
	"sync"
)

// Handler receives the payload of a message delivered on its topic.
type Handler func(payload string)

// Registry maps topics to handlers. Registering a topic again replaces its
// handler; entries are never removed. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register sets the handler for topic. A nil handler is ignored.
func (r *Registry) Register(topic string, h Handler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[topic] = h
}

// Lookup returns the handler for topic.
func (r *Registry) Lookup(topic string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[topic]
	return h, ok
}

// Topics lists the registered topics in lexical order.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}

// Dispatch calls the registered handler of every topic in batch once with
// that topic's payload. Topics without a handler are skipped. It returns
// the number of handlers called.
func Dispatch(batch Batch, r *Registry) int {
	called := 0
	for _, topic := range batch.Topics() {
		h, ok := r.Lookup(topic)
		if !ok {
			continue
		}
		h(batch[topic])
		called++
	}
	return called
}
