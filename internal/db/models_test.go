package db

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestRecentBids_NewestFirstAndBounded(t *testing.T) {
	auction := &Auction{}
	for i := int64(1); i <= 5; i++ {
		auction.Bids = append(auction.Bids, Bid{Amount: 100 + i})
	}

	recent := auction.RecentBids(3)
	check.Equal(t, []int64{105, 104, 103}, []int64{recent[0].Amount, recent[1].Amount, recent[2].Amount})

	all := auction.RecentBids(100)
	check.Equal(t, 5, len(all))
	check.Equal(t, int64(105), all[0].Amount)
	check.Equal(t, int64(101), all[4].Amount)
}

func TestRecentBids_EmptyHistory(t *testing.T) {
	auction := &Auction{}
	check.Equal(t, 0, len(auction.RecentBids(100)))
}
