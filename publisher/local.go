package publisher

import (
	"encoding/json"
	"fmt"
	"sync"
)

// LocalBroker delivers events to subscribers in the same process. It stands
// in for NATS in single-instance deployments and tests.
type LocalBroker struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]func([]byte)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{handlers: make(map[string]map[int]func([]byte))}
}

func (b *LocalBroker) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	b.mu.RLock()
	handlers := make([]func([]byte), 0, len(b.handlers[subject]))
	for _, h := range b.handlers[subject] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

func (b *LocalBroker) SubscribeFunc(subject string, handler func([]byte)) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.handlers[subject] == nil {
		b.handlers[subject] = make(map[int]func([]byte))
	}
	b.handlers[subject][id] = handler

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[subject], id)
		return nil
	}, nil
}
