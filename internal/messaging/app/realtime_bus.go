package app

import (
	"context"
	"sync"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/pkg/logger"

	"go.uber.org/zap"
)

// ThreadChannelPrefix prefixes the transport channel name of a thread.
const ThreadChannelPrefix = "chat:thread:"

// RealtimeBus multiplexes thread subscriptions over one transport channel per
// thread. Handlers on the same thread share a single underlying subscription
// and a single unsubscribe handle: a later Subscribe on an already-subscribed
// thread returns the existing handle, and calling it tears the whole thread
// channel down. The handle is idempotent.
type RealtimeBus struct {
	mu        sync.Mutex
	transport repository.PubSub
	threads   map[string]*threadSub
}

type threadSub struct {
	handlers []func(domain.Message)
	stop     func()
}

// NewRealtimeBus create a RealtimeBus; a nil transport means realtime is off.
func NewRealtimeBus(transport repository.PubSub) *RealtimeBus {
	return &RealtimeBus{
		transport: transport,
		threads:   make(map[string]*threadSub),
	}
}

// SetTransport swaps the transport. Existing subscriptions stay on the old one
// until they unsubscribe.
func (b *RealtimeBus) SetTransport(transport repository.PubSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transport = transport
}

// Enabled reports whether a transport is configured.
func (b *RealtimeBus) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transport != nil
}

// Subscribe registers handler for the thread's messages and returns the
// thread's unsubscribe function. The first subscriber of a thread opens the
// transport channel; later ones piggyback on it and receive the same handle,
// so unsubscribing through any handle stops delivery to every handler.
func (b *RealtimeBus) Subscribe(threadID string, handler func(domain.Message)) (func(), error) {
	b.mu.Lock()

	if b.transport == nil {
		b.mu.Unlock()
		return nil, domain.ErrRealtimeDisabled
	}

	if sub, ok := b.threads[threadID]; ok {
		sub.handlers = append(sub.handlers, handler)
		stop := sub.stop
		b.mu.Unlock()
		return stop, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &threadSub{handlers: []func(domain.Message){handler}}

	if err := b.transport.Subscribe(ctx, ThreadChannelPrefix+threadID, func(msg domain.Message) {
		b.dispatch(threadID, msg)
	}); err != nil {
		cancel()
		b.mu.Unlock()
		return nil, err
	}

	var once sync.Once
	sub.stop = func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			cancel()
			if b.threads[threadID] == sub {
				delete(b.threads, threadID)
			}
		})
	}
	b.threads[threadID] = sub
	b.mu.Unlock()

	return sub.stop, nil
}

// Publish pushes the message onto the thread's channel. A disabled transport
// makes this a no-op: sends must keep working without realtime.
func (b *RealtimeBus) Publish(ctx context.Context, msg domain.Message) error {
	b.mu.Lock()
	transport := b.transport
	b.mu.Unlock()

	if transport == nil {
		return nil
	}
	return transport.Publish(ctx, ThreadChannelPrefix+msg.ThreadID, msg)
}

func (b *RealtimeBus) dispatch(threadID string, msg domain.Message) {
	b.mu.Lock()
	sub, ok := b.threads[threadID]
	if !ok {
		b.mu.Unlock()
		return
	}
	handlers := make([]func(domain.Message), len(sub.handlers))
	copy(handlers, sub.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
	logger.Log.Debug("realtime dispatch",
		zap.String("threadID", threadID), zap.Int("handlers", len(handlers)))
}
