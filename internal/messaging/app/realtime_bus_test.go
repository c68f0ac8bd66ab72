package app

import (
	"context"
	"testing"
	"time"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/internal/messaging/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestBus(t *testing.T) *RealtimeBus {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRealtimeBus(repository.NewRedisPubSub(client))
}

func waitForMessage(t *testing.T, ch <-chan domain.Message) domain.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return domain.Message{}
	}
}

func TestRealtimeBus_DisabledTransport(t *testing.T) {
	bus := NewRealtimeBus(nil)

	assert.False(t, bus.Enabled())

	_, err := bus.Subscribe(uuid.New().String(), func(domain.Message) {})
	assert.ErrorIs(t, err, domain.ErrRealtimeDisabled)

	// sends keep working without realtime, publish is a no-op
	assert.NoError(t, bus.Publish(context.Background(), domain.Message{ThreadID: uuid.New().String()}))
}

func TestRealtimeBus_DeliversToSubscriber(t *testing.T) {
	bus := newTestBus(t)
	threadID := uuid.New().String()

	received := make(chan domain.Message, 1)
	unsubscribe, err := bus.Subscribe(threadID, func(msg domain.Message) {
		received <- msg
	})
	assert.NoError(t, err)
	defer unsubscribe()

	time.Sleep(50 * time.Millisecond)

	sent := domain.Message{ID: uuid.New().String(), ThreadID: threadID, Body: "hello"}
	assert.NoError(t, bus.Publish(context.Background(), sent))

	got := waitForMessage(t, received)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, sent.Body, got.Body)
}

func TestRealtimeBus_SharedThreadSubscription(t *testing.T) {
	bus := newTestBus(t)
	threadID := uuid.New().String()

	first := make(chan domain.Message, 1)
	second := make(chan domain.Message, 1)

	unsubA, err := bus.Subscribe(threadID, func(msg domain.Message) { first <- msg })
	assert.NoError(t, err)
	defer unsubA()

	unsubB, err := bus.Subscribe(threadID, func(msg domain.Message) { second <- msg })
	assert.NoError(t, err)
	defer unsubB()

	time.Sleep(50 * time.Millisecond)

	sent := domain.Message{ID: uuid.New().String(), ThreadID: threadID, Body: "both of you"}
	assert.NoError(t, bus.Publish(context.Background(), sent))

	assert.Equal(t, sent.ID, waitForMessage(t, first).ID)
	assert.Equal(t, sent.ID, waitForMessage(t, second).ID)
}

func TestRealtimeBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := newTestBus(t)
	threadID := uuid.New().String()

	received := make(chan domain.Message, 1)
	unsubscribe, err := bus.Subscribe(threadID, func(msg domain.Message) {
		received <- msg
	})
	assert.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	unsubscribe()
	time.Sleep(50 * time.Millisecond)

	assert.NoError(t, bus.Publish(context.Background(), domain.Message{ID: uuid.New().String(), ThreadID: threadID}))

	select {
	case <-received:
		t.Fatal("message delivered after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRealtimeBus_EitherHandleStopsDelivery(t *testing.T) {
	bus := newTestBus(t)
	threadID := uuid.New().String()

	received := make(chan domain.Message, 2)
	handler := func(msg domain.Message) { received <- msg }

	unsubA, err := bus.Subscribe(threadID, handler)
	assert.NoError(t, err)
	unsubB, err := bus.Subscribe(threadID, handler)
	assert.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	// both calls share one handle; unsubscribing the first tears the thread
	// down, repeating it is a no-op
	unsubA()
	unsubA()
	time.Sleep(50 * time.Millisecond)

	assert.NoError(t, bus.Publish(context.Background(), domain.Message{ID: uuid.New().String(), ThreadID: threadID}))

	select {
	case <-received:
		t.Fatal("handler invoked after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}

	unsubB()
}

func TestRealtimeBus_SetTransportEnables(t *testing.T) {
	bus := NewRealtimeBus(nil)
	assert.False(t, bus.Enabled())

	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	bus.SetTransport(repository.NewRedisPubSub(client))
	assert.True(t, bus.Enabled())

	_, err = bus.Subscribe(uuid.New().String(), func(domain.Message) {})
	assert.NoError(t, err)
}
