package validator

import (
	"fmt"
	"time"
)

// ValidateAuctionTitle validates the auction title length.
func ValidateAuctionTitle(title string) error {
	return ValidateString(title, 1, 200)
}

// ValidateAuctionStartingPrice validates the starting price.
func ValidateAuctionStartingPrice(price int64) error {
	if price <= 0 {
		return fmt.Errorf("starting_price must be positive, provided: %d", price)
	}
	return nil
}

// ValidateAuctionReservePrice validates the reserve price if provided.
func ValidateAuctionReservePrice(startingPrice int64, reservePrice *int64) error {
	if reservePrice != nil && *reservePrice <= startingPrice {
		return fmt.Errorf("reserve_price must exceed starting_price %d, provided: %d",
			startingPrice, *reservePrice)
	}
	return nil
}

// ValidateAuctionTimes validates the start/end times at creation.
func ValidateAuctionTimes(startTime, endTime time.Time) error {
	if endTime.IsZero() {
		return fmt.Errorf("end_time is required")
	}
	if !startTime.IsZero() && !endTime.After(startTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}
