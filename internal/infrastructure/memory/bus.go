package memory

import (
	"context"
	"sync"
)

// Bus is an in-process publish/subscribe channel with the same send
// contract as the Kafka producer. Handlers run synchronously in publish
// order, which preserves per-key ordering.
type Bus struct {
	mu       sync.RWMutex
	handlers []func(ctx context.Context, key, value []byte) error
	sent     [][2][]byte
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) SendMessage(ctx context.Context, key, value []byte) error {
	b.mu.Lock()
	b.sent = append(b.sent, [2][]byte{key, value})
	hs := append([]func(context.Context, []byte, []byte) error(nil), b.handlers...)
	b.mu.Unlock()

	for _, h := range hs {
		if err := h(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a handler invoked for every published message.
func (b *Bus) Subscribe(h func(ctx context.Context, key, value []byte) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Sent returns copies of all published (key, value) pairs.
func (b *Bus) Sent() [][2][]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([][2][]byte, len(b.sent))
	copy(out, b.sent)
	return out
}
