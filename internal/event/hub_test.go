package event

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestHub_BroadcastReachesTopicSubscribers(t *testing.T) {
	hub := NewHub()

	room := make(chan Event, 4)
	other := make(chan Event, 4)
	hub.Register(AuctionTopic("a1"), room)
	hub.Register(AuctionTopic("a2"), other)

	hub.Broadcast(Event{Topic: AuctionTopic("a1"), Type: EventTypeAuctionUpdate})

	check.Equal(t, 1, len(room))
	check.Equal(t, 0, len(other))

	got := <-room
	check.Equal(t, EventTypeAuctionUpdate, got.Type)
}

func TestHub_OneChannelOnMultipleTopics(t *testing.T) {
	hub := NewHub()

	client := make(chan Event, 4)
	hub.Register(TopicGlobal, client)
	hub.Register(UserTopic("alice"), client)

	hub.Broadcast(Event{Topic: TopicGlobal, Type: EventTypeAuctionCreated})
	hub.Broadcast(Event{Topic: UserTopic("alice"), Type: EventTypeOutbid})
	hub.Broadcast(Event{Topic: UserTopic("bob"), Type: EventTypeOutbid})

	check.Equal(t, 2, len(client))
}

func TestHub_FullSubscriberDropsWithoutBlocking(t *testing.T) {
	hub := NewHub()

	slow := make(chan Event, 1)
	fast := make(chan Event, 4)
	hub.Register(TopicGlobal, slow)
	hub.Register(TopicGlobal, fast)

	hub.Broadcast(Event{Topic: TopicGlobal, Type: EventTypeAuctionUpdate})
	// The slow channel is full now; the drop must not stall the fast one.
	hub.Broadcast(Event{Topic: TopicGlobal, Type: EventTypeAuctionUpdate})

	check.Equal(t, 1, len(slow))
	check.Equal(t, 2, len(fast))
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()

	client := make(chan Event, 4)
	hub.Register(TopicGlobal, client)
	hub.Unregister(TopicGlobal, client)

	hub.Broadcast(Event{Topic: TopicGlobal, Type: EventTypeAuctionUpdate})
	check.Equal(t, 0, len(client))

	// Unknown topic and channel are no-ops.
	hub.Unregister("nope", client)
}

func TestHub_ShutdownIgnoresLateRegistrations(t *testing.T) {
	hub := NewHub()

	client := make(chan Event, 4)
	hub.Register(TopicGlobal, client)
	hub.Shutdown()

	late := make(chan Event, 4)
	hub.Register(TopicGlobal, late)

	hub.Broadcast(Event{Topic: TopicGlobal, Type: EventTypeAuctionUpdate})
	check.Equal(t, 0, len(client))
	check.Equal(t, 0, len(late))
}
