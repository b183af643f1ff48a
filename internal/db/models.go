package db

import (
	"time"

	"github.com/google/uuid"
)

type AuctionStatus string

const (
	AuctionStatusScheduled AuctionStatus = "scheduled"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusEnded     AuctionStatus = "ended"
)

// Bid is a single accepted bid. Immutable once created and owned by
// exactly one auction.
type Bid struct {
	ID       uuid.UUID `json:"id"`
	Bidder   string    `json:"bidder"`
	Amount   int64     `json:"amount"`
	ClientID string    `json:"client_id,omitempty"`
	PlacedAt time.Time `json:"placed_at"`
}

// Auction is the durable auction record. Bids is append-only in acceptance
// order; Highest is a denormalized copy of the last appended bid and always
// carries the maximum amount, since accepted amounts are strictly increasing.
type Auction struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Currency      string        `json:"currency"`
	StartingPrice int64         `json:"starting_price"`
	ReservePrice  *int64        `json:"reserve_price,omitempty"`
	Bids          []Bid         `json:"bids"`
	Highest       *Bid          `json:"highest,omitempty"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Status        AuctionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// RecentBids returns up to the last max accepted bids, newest first.
// This bounded view is what handlers and events expose outward; the full
// history stays in the record.
func (a *Auction) RecentBids(max int) []Bid {
	n := len(a.Bids)
	if n > max {
		n = max
	}
	out := make([]Bid, 0, n)
	for i := len(a.Bids) - 1; i >= len(a.Bids)-n; i-- {
		out = append(out, a.Bids[i])
	}
	return out
}

// Notification is a durable per-user notice (outbid, win, seller updates)
// written by the notification worker.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	ReferenceID string    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}
