package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

func memAuction(status AuctionStatus, start, end time.Time) *Auction {
	return &Auction{
		ID:            uuid.New(),
		Title:         "test",
		Currency:      "USD",
		StartingPrice: 100,
		Bids:          []Bid{},
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		CreatedAt:     time.Now(),
	}
}

func TestMemStore_AuctionLifecycle(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	now := time.Now()

	_, err := store.GetAuctionByID(ctx, uuid.New())
	check.True(t, errors.Is(err, ErrRecordNotFound))

	a := memAuction(AuctionStatusActive, now, now.Add(time.Hour))
	check.Nil(t, store.CreateAuction(ctx, a))

	got, err := store.GetAuctionByID(ctx, a.ID)
	check.Nil(t, err)
	check.Equal(t, a.Title, got.Title)

	got.Status = AuctionStatusEnded
	check.Nil(t, store.SaveAuction(ctx, got))
	again, err := store.GetAuctionByID(ctx, a.ID)
	check.Nil(t, err)
	check.Equal(t, AuctionStatusEnded, again.Status)

	err = store.SaveAuction(ctx, memAuction(AuctionStatusActive, now, now))
	check.True(t, errors.Is(err, ErrRecordNotFound))
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	now := time.Now()

	a := memAuction(AuctionStatusActive, now, now.Add(time.Hour))
	check.Nil(t, store.CreateAuction(ctx, a))

	// Mutating a snapshot must not leak back into the store.
	got, err := store.GetAuctionByID(ctx, a.ID)
	check.Nil(t, err)
	got.Bids = append(got.Bids, Bid{Bidder: "intruder", Amount: 999})
	got.Status = AuctionStatusEnded

	fresh, err := store.GetAuctionByID(ctx, a.ID)
	check.Nil(t, err)
	check.Equal(t, 0, len(fresh.Bids))
	check.Equal(t, AuctionStatusActive, fresh.Status)
}

func TestMemStore_DeadlineQueries(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	now := time.Now()

	expired := memAuction(AuctionStatusActive, now.Add(-time.Hour), now.Add(-time.Minute))
	running := memAuction(AuctionStatusActive, now.Add(-time.Hour), now.Add(time.Hour))
	due := memAuction(AuctionStatusScheduled, now.Add(-time.Minute), now.Add(time.Hour))
	future := memAuction(AuctionStatusScheduled, now.Add(time.Hour), now.Add(2*time.Hour))
	for _, a := range []*Auction{expired, running, due, future} {
		check.Nil(t, store.CreateAuction(ctx, a))
	}

	gotExpired, err := store.FindActiveExpired(ctx, now)
	check.Nil(t, err)
	check.Equal(t, 1, len(gotExpired))
	check.Equal(t, expired.ID, gotExpired[0].ID)

	gotDue, err := store.FindScheduledDue(ctx, now)
	check.Nil(t, err)
	check.Equal(t, 1, len(gotDue))
	check.Equal(t, due.ID, gotDue[0].ID)
}

func TestMemStore_NotificationsNewestFirst(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		check.Nil(t, store.CreateNotification(ctx, &Notification{
			ID:          uuid.New(),
			RecipientID: "alice",
			Title:       title,
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		}))
	}
	check.Nil(t, store.CreateNotification(ctx, &Notification{
		ID:          uuid.New(),
		RecipientID: "bob",
		Title:       "other",
	}))

	got, err := store.ListNotificationsByRecipient(ctx, "alice", 2)
	check.Nil(t, err)
	check.Equal(t, 2, len(got))
	check.Equal(t, "third", got[0].Title)
	check.Equal(t, "second", got[1].Title)
}
