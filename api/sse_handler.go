package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/livebid/livebid-BE/internal/event"
	"github.com/livebid/livebid-BE/internal/hub"
	"github.com/livebid/livebid-BE/internal/token"
)

// eventChanBuffer sizes the per-connection channel. Broadcasts to a full
// channel are dropped, so this bounds how far a slow reader may lag.
const eventChanBuffer = 64

//	@Summary		Stream one auction's events via Server-Sent Events
//	@Description	Opening the stream joins the auction's room and counts as presence; closing it leaves.
//	@Tags			auctions
//	@Produce		text/event-stream
//	@Param			auctionID	path		string	true	"Auction ID"
//	@Success		200			{string}	string	"Event stream with format: 'event: {type}\ndata: {json}'"
//	@Router			/auctions/{auctionID}/stream [get]
func (server *Server) streamAuctionEvents(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("auctionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid auction ID format")))
		return
	}

	found, err := server.manager.GetAuction(c, auctionID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse(fmt.Errorf("auction ID %s not found", auctionID)))
		return
	}

	clientID := shortuuid.New()
	topic := event.AuctionTopic(auctionID.String())

	clientChan := make(chan event.Event, eventChanBuffer)
	server.eventSender.Register(topic, clientChan)
	server.broadcaster.Subscribe(auctionID, clientID)
	defer func() {
		server.broadcaster.Unsubscribe(auctionID, clientID)
		server.eventSender.Unregister(topic, clientChan)
	}()

	setSSEHeaders(c)

	// Initial snapshot so the client does not wait for the next tick.
	writeSSE(c, event.EventTypeAuctionUpdate,
		hub.NewAuctionView(found, server.broadcaster.ParticipantCount(auctionID)))

	streamEvents(c, clientChan)
}

//	@Summary		Stream the global feed via Server-Sent Events
//	@Description	Cross-auction events: creations, any bid anywhere, any status change anywhere.
//	@Tags			auctions
//	@Produce		text/event-stream
//	@Router			/stream [get]
func (server *Server) streamGlobalEvents(c *gin.Context) {
	clientChan := make(chan event.Event, eventChanBuffer)
	server.eventSender.Register(event.TopicGlobal, clientChan)
	defer server.eventSender.Unregister(event.TopicGlobal, clientChan)

	setSSEHeaders(c)
	streamEvents(c, clientChan)
}

//	@Summary		Stream targeted notifications for the authenticated user
//	@Tags			users
//	@Produce		text/event-stream
//	@Security		accessToken
//	@Router			/users/me/notifications/stream [get]
func (server *Server) streamUserNotifications(c *gin.Context) {
	authPayload := c.MustGet(authorizationPayloadKey).(*token.Payload)
	topic := event.UserTopic(authPayload.Subject)

	clientChan := make(chan event.Event, eventChanBuffer)
	server.eventSender.Register(topic, clientChan)
	defer server.eventSender.Unregister(topic, clientChan)

	setSSEHeaders(c)
	streamEvents(c, clientChan)
}

func setSSEHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
}

func streamEvents(c *gin.Context, clientChan chan event.Event) {
	for {
		select {
		case ev := <-clientChan:
			writeSSE(c, ev.Type, ev.Data)
		case <-c.Request.Context().Done():
			return
		}
	}
}

func writeSSE(c *gin.Context, eventType string, data interface{}) {
	payload, _ := json.Marshal(data)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventType, payload)
	c.Writer.Flush()
}
