package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(channelForAxis("full"))
	defer sub.Unsubscribe()

	bus.Publish(Event{Type: TypeGHAPResolved, Channel: channelForAxis("full"), Payload: map[string]any{"entry_id": "e1"}})

	select {
	case evt := <-sub.Events():
		assert.Equal(t, TypeGHAPResolved, evt.Type)
		assert.Equal(t, "e1", evt.Payload["entry_id"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeOnOtherChannelDoesNotReceive(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(channelForAxis("strategy"))
	defer sub.Unsubscribe()

	bus.Publish(Event{Type: TypeGHAPResolved, Channel: channelForAxis("full"), Payload: map[string]any{}})

	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected event delivered: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGlobalChannelSubscriberSeesEverything(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(GlobalChannel)
	defer sub.Unsubscribe()

	bus.Publish(Event{Type: TypeClusterCompleted, Channel: channelForAxis("surprise"), Payload: map[string]any{}})

	select {
	case evt := <-sub.Events():
		assert.Equal(t, TypeClusterCompleted, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeStopsDeliveryAndClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(channelForAxis("full"))
	require.Equal(t, 1, bus.SubscriberCount(channelForAxis("full")))

	sub.Unsubscribe()
	assert.Equal(t, 0, bus.SubscriberCount(channelForAxis("full")))

	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(channelForAxis("full"))
	sub.Unsubscribe()
	assert.NotPanics(t, sub.Unsubscribe)
}

func TestPublishDropsForFullSubscriberBuffer(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(channelForAxis("full"))
	defer sub.Unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeGHAPResolved, Channel: channelForAxis("full")})
	}

	assert.Equal(t, subscriberBuffer, len(sub.Events()))
}

func TestPublisherTypedMethodsRouteByAxis(t *testing.T) {
	bus := NewBus()
	pub := NewPublisher(bus)
	sub := bus.Subscribe(channelForAxis("root_cause"))
	defer sub.Unsubscribe()

	pub.PublishValueStored("v1", "root_cause", "root_cause:2:abcd1234")

	select {
	case evt := <-sub.Events():
		assert.Equal(t, TypeValueStored, evt.Type)
		assert.Equal(t, "v1", evt.Payload["value_id"])
		assert.Equal(t, "root_cause:2:abcd1234", evt.Payload["cluster_id"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventMarshalProducesJSON(t *testing.T) {
	evt := Event{Type: TypeClusterCompleted, Channel: GlobalChannel, Payload: map[string]any{"axis": "full"}}
	data, err := evt.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"cluster.completed"`)
}
