package hub

import (
	"time"

	"github.com/livebid/livebid-BE/internal/db"
)

// recentBidsLimit bounds the bid history exposed in views and events.
// The full history stays in the store.
const recentBidsLimit = 100

// AuctionView is the outward shape of an auction: bounded bid history,
// newest first, plus the live participant count.
type AuctionView struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Currency           string           `json:"currency"`
	StartingPrice      int64            `json:"starting_price"`
	ReservePrice       *int64           `json:"reserve_price,omitempty"`
	Bids               []db.Bid         `json:"bids"`
	Highest            *db.Bid          `json:"highest,omitempty"`
	StartTime          time.Time        `json:"start_time"`
	EndTime            time.Time        `json:"end_time"`
	Status             db.AuctionStatus `json:"status"`
	CreatedAt          time.Time        `json:"created_at"`
	ParticipantsOnline int              `json:"participants_online"`
}

func NewAuctionView(auction *db.Auction, participantsOnline int) AuctionView {
	return AuctionView{
		ID:                 auction.ID.String(),
		Title:              auction.Title,
		Description:        auction.Description,
		Currency:           auction.Currency,
		StartingPrice:      auction.StartingPrice,
		ReservePrice:       auction.ReservePrice,
		Bids:               auction.RecentBids(recentBidsLimit),
		Highest:            auction.Highest,
		StartTime:          auction.StartTime,
		EndTime:            auction.EndTime,
		Status:             auction.Status,
		CreatedAt:          auction.CreatedAt,
		ParticipantsOnline: participantsOnline,
	}
}
