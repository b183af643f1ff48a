package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests and local development runs
// without Postgres. Records are deep-copied on the way in and out so callers
// never share slices with the store.
type MemStore struct {
	mu            sync.RWMutex
	auctions      map[uuid.UUID]*Auction
	notifications []*Notification
}

func NewMemStore() *MemStore {
	return &MemStore{
		auctions: make(map[uuid.UUID]*Auction),
	}
}

func (store *MemStore) CreateAuction(_ context.Context, auction *Auction) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.auctions[auction.ID] = copyAuction(auction)
	return nil
}

func (store *MemStore) GetAuctionByID(_ context.Context, id uuid.UUID) (*Auction, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	auction, ok := store.auctions[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return copyAuction(auction), nil
}

func (store *MemStore) ListAuctions(_ context.Context) ([]*Auction, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	out := make([]*Auction, 0, len(store.auctions))
	for _, auction := range store.auctions {
		out = append(out, copyAuction(auction))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (store *MemStore) SaveAuction(_ context.Context, auction *Auction) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.auctions[auction.ID]; !ok {
		return ErrRecordNotFound
	}
	store.auctions[auction.ID] = copyAuction(auction)
	return nil
}

func (store *MemStore) FindActiveExpired(_ context.Context, now time.Time) ([]*Auction, error) {
	return store.findWhere(func(a *Auction) bool {
		return a.Status == AuctionStatusActive && !a.EndTime.After(now)
	}), nil
}

func (store *MemStore) FindScheduledDue(_ context.Context, now time.Time) ([]*Auction, error) {
	return store.findWhere(func(a *Auction) bool {
		return a.Status == AuctionStatusScheduled && !a.StartTime.After(now)
	}), nil
}

func (store *MemStore) findWhere(match func(*Auction) bool) []*Auction {
	store.mu.RLock()
	defer store.mu.RUnlock()
	out := make([]*Auction, 0)
	for _, auction := range store.auctions {
		if match(auction) {
			out = append(out, copyAuction(auction))
		}
	}
	return out
}

func (store *MemStore) CreateNotification(_ context.Context, n *Notification) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	c := *n
	store.notifications = append(store.notifications, &c)
	return nil
}

func (store *MemStore) ListNotificationsByRecipient(_ context.Context, recipientID string, limit int) ([]*Notification, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	out := make([]*Notification, 0)
	for i := len(store.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if store.notifications[i].RecipientID == recipientID {
			c := *store.notifications[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func copyAuction(auction *Auction) *Auction {
	c := *auction
	c.Bids = make([]Bid, len(auction.Bids))
	copy(c.Bids, auction.Bids)
	if auction.Highest != nil {
		highest := *auction.Highest
		c.Highest = &highest
	}
	if auction.ReservePrice != nil {
		reserve := *auction.ReservePrice
		c.ReservePrice = &reserve
	}
	return &c
}
