package event

import "fmt"

// Event is a single push message routed by topic. Topics are
// "auction:<id>" for one auction's room, "global" for every connected
// client, and "user:<username>" for targeted notices.
type Event struct {
	Topic string      `json:"topic"`
	Type  string      `json:"type"`
	Data  interface{} `json:"data"`
}

const (
	EventTypeAuctionCreated = "auction:created"
	EventTypeAuctionUpdate  = "auction:update"
	EventTypeAuctionTick    = "auction:tick"
	EventTypeAuctionEnded   = "auction:ended"
	EventTypeStatusChange   = "auction:status-change"
	EventTypeBidUpdate      = "auction:bid-update"
	EventTypeOutbid         = "bid:outbid"
	EventTypeNotification   = "notification"
)

const TopicGlobal = "global"

// AuctionTopic returns the room topic for one auction.
func AuctionTopic(auctionID string) string {
	return fmt.Sprintf("auction:%s", auctionID)
}

// UserTopic returns the targeted topic for one user identity.
func UserTopic(username string) string {
	return fmt.Sprintf("user:%s", username)
}

// Sender fans events out to subscribed client channels. Delivery is
// best-effort: a topic with no subscribers drops the event, a full client
// channel is skipped, and neither case surfaces an error to the publisher.
type Sender interface {
	Register(topic string, client chan Event)
	Unregister(topic string, client chan Event)
	Broadcast(event Event)
	Shutdown()
}
