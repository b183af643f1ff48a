package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/livebid/livebid-BE/internal/auction"
	"github.com/livebid/livebid-BE/internal/token"
	"github.com/livebid/livebid-BE/internal/worker"
	"github.com/rs/zerolog/log"
)

type placeBidRequest struct {
	Amount   int64  `json:"amount" binding:"required"`
	ClientID string `json:"client_id"`
}

type placeBidResponse struct {
	Success    bool      `json:"success"`
	Bid        any       `json:"bid"`
	Extended   bool      `json:"extended"`
	NewEndTime time.Time `json:"new_end_time"`
}

//	@Summary		Place a bid in an auction
//	@Description	Bids for one auction are applied strictly in admission order.
//	@Tags			auctions
//	@Accept			json
//	@Produce		json
//	@Param			auctionID	path	string			true	"Auction ID"
//	@Param			request		body	placeBidRequest	true	"Bid amount and optional client correlation id"
//	@Success		200			{object}	placeBidResponse
//	@Security		accessToken
//	@Router			/auctions/{auctionID}/bids [post]
func (server *Server) placeBid(c *gin.Context) {
	authPayload := c.MustGet(authorizationPayloadKey).(*token.Payload)
	bidder := authPayload.Subject

	auctionID, err := uuid.Parse(c.Param("auctionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid auction ID format")))
		return
	}

	var req placeBidRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid request body: %w", err)))
		return
	}

	if req.Amount <= 0 {
		err = fmt.Errorf("bid amount must be greater than 0, provided: %d", req.Amount)
		c.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	result, err := server.manager.PlaceBid(c, auctionID, auction.PlaceBidParams{
		Bidder:   bidder,
		Amount:   req.Amount,
		ClientID: req.ClientID,
	})
	if err != nil {
		var tooLow *auction.BidTooLowError
		switch {
		case errors.Is(err, auction.ErrAuctionNotFound):
			c.JSON(http.StatusNotFound, errorResponse(fmt.Errorf("auction ID %s not found", auctionID)))
		case errors.Is(err, auction.ErrAuctionNotStarted):
			c.JSON(http.StatusUnprocessableEntity, errorResponse(err))
		case errors.Is(err, auction.ErrAuctionEnded):
			c.JSON(http.StatusUnprocessableEntity, errorResponse(err))
		case errors.As(err, &tooLow):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      tooLow.Error(),
				"min_amount": tooLow.Minimum,
			})
		default:
			c.JSON(http.StatusInternalServerError, errorResponse(fmt.Errorf("failed to place bid: %w", err)))
		}
		return
	}

	// Broadcast and queue notifications off the request path.
	go server.afterBidPlaced(result)

	c.JSON(http.StatusOK, placeBidResponse{
		Success:    true,
		Bid:        result.Bid,
		Extended:   result.Extended,
		NewEndTime: result.NewEndTime,
	})
}

// afterBidPlaced fans the accepted bid out to the rooms and queues the
// durable outbid notification. Failures here are logged and never reach the
// bidder; the bid is already committed.
func (server *Server) afterBidPlaced(result *auction.PlaceBidResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	server.broadcaster.PublishBidPlaced(result)

	prev := result.PreviousHighest
	if prev == nil || prev.Bidder == result.Bid.Bidder {
		return
	}

	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Queue(worker.QueueCritical),
	}
	err := server.taskDistributor.DistributeTaskSendNotification(
		ctx,
		&worker.PayloadSendNotification{
			RecipientID: prev.Bidder,
			Title:       "You have been outbid",
			Message: fmt.Sprintf("Your bid on %s has been outbid. The new highest bid is %d %s.",
				result.Auction.Title, result.Bid.Amount, result.Auction.Currency),
			Type:        "auction_outbid",
			ReferenceID: result.Auction.ID.String(),
		},
		opts...,
	)
	if err != nil {
		log.Err(err).
			Str("recipient_id", prev.Bidder).
			Str("auction_id", result.Auction.ID.String()).
			Msg("failed to queue outbid notification")
	}
}
