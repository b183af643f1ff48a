package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/livebid/livebid-BE/internal/auction"
	"github.com/livebid/livebid-BE/internal/hub"
	"github.com/livebid/livebid-BE/internal/validator"
)

type createAuctionRequest struct {
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	Currency      string     `json:"currency" binding:"required"`
	StartingPrice int64      `json:"starting_price" binding:"required"`
	ReservePrice  *int64     `json:"reserve_price"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       time.Time  `json:"end_time" binding:"required"`
}

func (req *createAuctionRequest) validate() []*FieldViolation {
	var violations []*FieldViolation

	if err := validator.ValidateAuctionTitle(req.Title); err != nil {
		violations = append(violations, fieldViolation("title", err))
	}
	if err := validator.ValidateCurrency(req.Currency); err != nil {
		violations = append(violations, fieldViolation("currency", err))
	}
	if err := validator.ValidateAuctionStartingPrice(req.StartingPrice); err != nil {
		violations = append(violations, fieldViolation("starting_price", err))
	}
	if err := validator.ValidateAuctionReservePrice(req.StartingPrice, req.ReservePrice); err != nil {
		violations = append(violations, fieldViolation("reserve_price", err))
	}
	startTime := time.Time{}
	if req.StartTime != nil {
		startTime = *req.StartTime
	}
	if err := validator.ValidateAuctionTimes(startTime, req.EndTime); err != nil {
		violations = append(violations, fieldViolation("end_time", err))
	}

	return violations
}

//	@Summary		Create a new auction
//	@Description	A future start_time creates the auction scheduled, otherwise it is active immediately.
//	@Tags			auctions
//	@Accept			json
//	@Produce		json
//	@Param			request	body	createAuctionRequest	true	"Auction fields"
//	@Success		200		{object}	hub.AuctionView
//	@Security		accessToken
//	@Router			/auctions [post]
func (server *Server) createAuction(c *gin.Context) {
	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid request body: %w", err)))
		return
	}

	if violations := req.validate(); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, failedValidationError(violations))
		return
	}

	params := auction.CreateAuctionParams{
		Title:         req.Title,
		Description:   req.Description,
		Currency:      req.Currency,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		EndTime:       req.EndTime,
	}
	if req.StartTime != nil {
		params.StartTime = *req.StartTime
	}

	created, err := server.manager.CreateAuction(c, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Errorf("failed to create auction: %w", err)))
		return
	}

	server.broadcaster.PublishAuctionCreated(created)

	c.JSON(http.StatusOK, hub.NewAuctionView(created, 0))
}

//	@Summary		List auctions grouped by effective state
//	@Tags			auctions
//	@Produce		json
//	@Success		200	{object}	auction.AuctionList
//	@Router			/auctions [get]
func (server *Server) listAuctions(c *gin.Context) {
	list, err := server.manager.ListAuctions(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Errorf("failed to list auctions: %w", err)))
		return
	}

	c.JSON(http.StatusOK, list)
}

//	@Summary		Get one auction
//	@Tags			auctions
//	@Produce		json
//	@Param			auctionID	path		string	true	"Auction ID"
//	@Success		200			{object}	hub.AuctionView
//	@Router			/auctions/{auctionID} [get]
func (server *Server) getAuction(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("auctionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid auction ID format")))
		return
	}

	found, err := server.manager.GetAuction(c, auctionID)
	if err != nil {
		if errors.Is(err, auction.ErrAuctionNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(err))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}

	c.JSON(http.StatusOK, hub.NewAuctionView(found, server.broadcaster.ParticipantCount(auctionID)))
}

//	@Summary		List an auction's recent bids, newest first
//	@Tags			auctions
//	@Produce		json
//	@Param			auctionID	path	string	true	"Auction ID"
//	@Router			/auctions/{auctionID}/bids [get]
func (server *Server) listAuctionBids(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("auctionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid auction ID format")))
		return
	}

	found, err := server.manager.GetAuction(c, auctionID)
	if err != nil {
		if errors.Is(err, auction.ErrAuctionNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(err))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": found.RecentBids(100)})
}
