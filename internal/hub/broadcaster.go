package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livebid/livebid-BE/internal/auction"
	"github.com/livebid/livebid-BE/internal/db"
	"github.com/livebid/livebid-BE/internal/event"
	"github.com/livebid/livebid-BE/internal/util"
	"github.com/rs/zerolog/log"
)

// Broadcaster tracks which clients are present in which auction room and
// turns engine results into push events on the room, global, and user
// topics. It owns the lazy per-auction tick timers: the first subscriber of
// a room starts one, the last to leave stops it.
//
// All registry state is process-local and rebuilt from zero on restart;
// clients re-join.
type Broadcaster struct {
	sender event.Sender
	store  db.Store

	tickInterval time.Duration

	mu          sync.Mutex
	subscribers map[uuid.UUID]map[string]bool // auction id -> client ids
	clientRooms map[string]map[uuid.UUID]bool // client id -> auction ids
	tickStops   map[uuid.UUID]chan struct{}
	closed      bool

	// now is swappable in tests.
	now func() time.Time
}

func NewBroadcaster(sender event.Sender, store db.Store, tickInterval time.Duration) *Broadcaster {
	return &Broadcaster{
		sender:       sender,
		store:        store,
		tickInterval: tickInterval,
		subscribers:  make(map[uuid.UUID]map[string]bool),
		clientRooms:  make(map[string]map[uuid.UUID]bool),
		tickStops:    make(map[uuid.UUID]chan struct{}),
		now:          time.Now,
	}
}

// Subscribe adds the client to the auction's room, starting the tick timer
// on the first subscriber, and pushes a presence update to the room.
func (b *Broadcaster) Subscribe(auctionID uuid.UUID, clientID string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	room, ok := b.subscribers[auctionID]
	if !ok {
		room = make(map[string]bool)
		b.subscribers[auctionID] = room
	}
	room[clientID] = true
	rooms, ok := b.clientRooms[clientID]
	if !ok {
		rooms = make(map[uuid.UUID]bool)
		b.clientRooms[clientID] = rooms
	}
	rooms[auctionID] = true
	if len(room) == 1 {
		b.startTickLocked(auctionID)
	}
	count := len(room)
	b.mu.Unlock()

	b.publishPresence(auctionID, count)
}

// Unsubscribe removes the client from the auction's room, stopping the tick
// timer when the room empties, and pushes a presence update.
func (b *Broadcaster) Unsubscribe(auctionID uuid.UUID, clientID string) {
	b.mu.Lock()
	room, ok := b.subscribers[auctionID]
	if !ok || !room[clientID] {
		b.mu.Unlock()
		return
	}
	delete(room, clientID)
	if rooms, ok := b.clientRooms[clientID]; ok {
		delete(rooms, auctionID)
		if len(rooms) == 0 {
			delete(b.clientRooms, clientID)
		}
	}
	if len(room) == 0 {
		delete(b.subscribers, auctionID)
		b.stopTickLocked(auctionID)
	}
	count := len(room)
	b.mu.Unlock()

	b.publishPresence(auctionID, count)
}

// DisconnectClient removes the client from every room it was subscribed to
// in one pass. Each vacated room loses its tick timer and every affected
// room gets a presence update.
func (b *Broadcaster) DisconnectClient(clientID string) {
	b.mu.Lock()
	affected := make(map[uuid.UUID]int)
	for auctionID := range b.clientRooms[clientID] {
		room := b.subscribers[auctionID]
		delete(room, clientID)
		if len(room) == 0 {
			delete(b.subscribers, auctionID)
			b.stopTickLocked(auctionID)
		}
		affected[auctionID] = len(room)
	}
	delete(b.clientRooms, clientID)
	b.mu.Unlock()

	for auctionID, count := range affected {
		b.publishPresence(auctionID, count)
	}
}

// ParticipantCount reports how many clients are currently in the room.
func (b *Broadcaster) ParticipantCount(auctionID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[auctionID])
}

// PublishAuctionCreated announces a new auction on the global feed.
func (b *Broadcaster) PublishAuctionCreated(a *db.Auction) {
	b.sender.Broadcast(event.Event{
		Topic: event.TopicGlobal,
		Type:  event.EventTypeAuctionCreated,
		Data: map[string]interface{}{
			"auction": NewAuctionView(a, b.ParticipantCount(a.ID)),
		},
	})
}

// PublishBidPlaced fans an accepted bid out: the room gets the updated
// state, the global feed gets the movement, and the previous leader gets a
// targeted outbid notice. Called after the engine released the auction's
// lock; delivery is fire-and-forget.
func (b *Broadcaster) PublishBidPlaced(result *auction.PlaceBidResult) {
	a := result.Auction
	participants := b.ParticipantCount(a.ID)

	b.sender.Broadcast(event.Event{
		Topic: event.AuctionTopic(a.ID.String()),
		Type:  event.EventTypeAuctionUpdate,
		Data: map[string]interface{}{
			"auction_id":          a.ID.String(),
			"highest":             a.Highest,
			"bids":                a.RecentBids(recentBidsLimit),
			"extended":            result.Extended,
			"new_end_time":        result.NewEndTime,
			"participants_online": participants,
		},
	})

	b.sender.Broadcast(event.Event{
		Topic: event.TopicGlobal,
		Type:  event.EventTypeBidUpdate,
		Data: map[string]interface{}{
			"auction_id": a.ID.String(),
			"auction":    NewAuctionView(a, participants),
			"bidder":     result.Bid.Bidder,
			"amount":     result.Bid.Amount,
		},
	})

	// Outbid notice goes to the losing bidder's identity, not the room: a
	// user can be outbid while browsing elsewhere.
	if prev := result.PreviousHighest; prev != nil && prev.Bidder != result.Bid.Bidder {
		b.sender.Broadcast(event.Event{
			Topic: event.UserTopic(prev.Bidder),
			Type:  event.EventTypeOutbid,
			Data: map[string]interface{}{
				"outbid_user":    prev.Bidder,
				"auction_title":  a.Title,
				"auction_id":     a.ID.String(),
				"new_bidder":     result.Bid.Bidder,
				"new_bid_amount": result.Bid.Amount,
				"timestamp":      b.now(),
			},
		})
	}
}

// NotifyUser pushes a durable notification to the user's topic. Used by the
// notification worker after persisting.
func (b *Broadcaster) NotifyUser(recipientID string, n *db.Notification) {
	b.sender.Broadcast(event.Event{
		Topic: event.UserTopic(recipientID),
		Type:  event.EventTypeNotification,
		Data:  n,
	})
}

// AuctionActivated implements auction.SweepNotifier.
func (b *Broadcaster) AuctionActivated(change auction.StatusChange) {
	b.publishStatusChange(change)
}

// AuctionEnded implements auction.SweepNotifier. Ending a room also stops
// its tick timer; the stop is idempotent against the timer noticing the
// deadline itself.
func (b *Broadcaster) AuctionEnded(change auction.StatusChange) {
	b.publishStatusChange(change)

	b.sender.Broadcast(event.Event{
		Topic: event.AuctionTopic(change.AuctionID.String()),
		Type:  event.EventTypeAuctionEnded,
		Data: map[string]interface{}{
			"auction_id": change.AuctionID.String(),
			"end_time":   change.Auction.EndTime,
			"snapshot":   NewAuctionView(change.Auction, b.ParticipantCount(change.AuctionID)),
		},
	})

	b.mu.Lock()
	b.stopTickLocked(change.AuctionID)
	b.mu.Unlock()
}

// Shutdown stops every tick timer and clears the registry.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for auctionID := range b.tickStops {
		b.stopTickLocked(auctionID)
	}
	b.subscribers = make(map[uuid.UUID]map[string]bool)
	b.clientRooms = make(map[string]map[uuid.UUID]bool)
}

func (b *Broadcaster) publishStatusChange(change auction.StatusChange) {
	data := map[string]interface{}{
		"auction_id": change.AuctionID.String(),
		"old_status": change.OldStatus,
		"new_status": change.NewStatus,
		"auction":    NewAuctionView(change.Auction, b.ParticipantCount(change.AuctionID)),
	}

	b.sender.Broadcast(event.Event{
		Topic: event.AuctionTopic(change.AuctionID.String()),
		Type:  event.EventTypeStatusChange,
		Data:  data,
	})
	b.sender.Broadcast(event.Event{
		Topic: event.TopicGlobal,
		Type:  event.EventTypeStatusChange,
		Data:  data,
	})
}

func (b *Broadcaster) publishPresence(auctionID uuid.UUID, count int) {
	b.sender.Broadcast(event.Event{
		Topic: event.AuctionTopic(auctionID.String()),
		Type:  event.EventTypeAuctionUpdate,
		Data: map[string]interface{}{
			"auction_id":          auctionID.String(),
			"participants_online": count,
		},
	})
}

// startTickLocked starts the 1 s countdown timer for a room. Caller holds
// b.mu. At most one timer per auction exists.
func (b *Broadcaster) startTickLocked(auctionID uuid.UUID) {
	if _, running := b.tickStops[auctionID]; running {
		return
	}
	stop := make(chan struct{})
	b.tickStops[auctionID] = stop
	go b.runTick(auctionID, stop)
}

// stopTickLocked stops a room's timer if one is running. Safe to call when
// none is; the sweeper, the timer itself, and unsubscribes may race here.
func (b *Broadcaster) stopTickLocked(auctionID uuid.UUID) {
	if stop, ok := b.tickStops[auctionID]; ok {
		delete(b.tickStops, auctionID)
		close(stop)
	}
}

// stopTickIfCurrent stops the room's timer only if stop is still its
// channel. A timer winding down past the deadline can race a room that
// emptied and refilled; a stale stop must not tear down the successor.
func (b *Broadcaster) stopTickIfCurrent(auctionID uuid.UUID, stop chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tickStops[auctionID] == stop {
		b.stopTickLocked(auctionID)
	}
}

func (b *Broadcaster) runTick(auctionID uuid.UUID, stop chan struct{}) {
	ticker := time.NewTicker(b.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !b.sendTick(auctionID) {
				b.stopTickIfCurrent(auctionID, stop)
				return
			}
		}
	}
}

// sendTick reads the persisted deadline (lock-free; ticks never need the
// auction's write exclusivity) and emits one countdown event. Returns false
// once the auction is gone or past its deadline.
func (b *Broadcaster) sendTick(auctionID uuid.UUID) bool {
	ctx, cancel := context.WithTimeout(context.Background(), b.tickInterval)
	defer cancel()

	a, err := b.store.GetAuctionByID(ctx, auctionID)
	if err != nil {
		log.Warn().Err(err).
			Str("auction_id", auctionID.String()).
			Msg("tick timer failed to load auction")
		return !errors.Is(err, db.ErrRecordNotFound)
	}

	now := b.now()
	remaining := a.EndTime.Sub(now)
	if remaining <= 0 {
		return false
	}

	b.sender.Broadcast(event.Event{
		Topic: event.AuctionTopic(auctionID.String()),
		Type:  event.EventTypeAuctionTick,
		Data: map[string]interface{}{
			"auction_id":     auctionID.String(),
			"time_remaining": util.FormatTimeRemaining(remaining),
			"server_time":    now,
			"end_time":       a.EndTime,
		},
	})

	return true
}
