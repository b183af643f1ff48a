package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lithammer/shortuuid/v4"
	"github.com/livebid/livebid-BE/internal/auction"
	"github.com/livebid/livebid-BE/internal/event"
	"github.com/livebid/livebid-BE/internal/hub"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin is enforced by the CORS layer for the REST surface; the
	// socket carries only an opaque username.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
)

// wsCommand is one inbound client message.
type wsCommand struct {
	Type      string `json:"type"`
	AuctionID string `json:"auction_id,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// wsAck answers one command. Data is present on success, Error on failure.
type wsAck struct {
	Type      string      `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Success   bool        `json:"success"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

//	@Summary		Bidirectional auction channel
//	@Description	Commands: auction:join, auction:leave, bid:place, ping. The client receives every event of its joined rooms, the global feed, and its user topic.
//	@Tags			realtime
//	@Router			/ws [get]
func (server *Server) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	username := server.identityFromRequest(c)
	clientID := shortuuid.New()
	if username == "" {
		username = "User_" + clientID[:6]
	}

	session := &wsSession{
		server:   server,
		conn:     conn,
		username: username,
		clientID: clientID,
		events:   make(chan event.Event, 256),
		rooms:    make(map[uuid.UUID]bool),
		done:     make(chan struct{}),
	}
	session.run()
}

// wsSession owns one connection: a writer goroutine drains the event
// channel while the read loop processes commands. All registry bookkeeping
// is undone on exit, however the connection fails.
type wsSession struct {
	server   *Server
	conn     *websocket.Conn
	username string
	clientID string
	events   chan event.Event
	done     chan struct{}

	// writeMu serializes conn writes between the event pump and command
	// acks; gorilla permits one concurrent writer.
	writeMu sync.Mutex

	mu    sync.Mutex
	rooms map[uuid.UUID]bool
}

func (s *wsSession) run() {
	defer s.cleanup()

	s.server.eventSender.Register(event.TopicGlobal, s.events)
	s.server.eventSender.Register(event.UserTopic(s.username), s.events)

	go s.writeLoop()

	s.send(wsAck{Type: "connected", Success: true, Data: gin.H{
		"client_id": s.clientID,
		"username":  s.username,
	}})

	_ = s.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("client_id", s.clientID).Msg("websocket closed")
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.send(wsAck{Type: "error", Success: false, Error: "malformed command"})
			continue
		}
		s.handle(cmd)
	}
}

func (s *wsSession) handle(cmd wsCommand) {
	switch cmd.Type {
	case "ping":
		s.send(wsAck{Type: "pong", RequestID: cmd.RequestID, Success: true})
	case "auction:join":
		s.handleJoin(cmd)
	case "auction:leave":
		s.handleLeave(cmd)
	case "bid:place":
		s.handleBid(cmd)
	default:
		s.send(wsAck{Type: "error", RequestID: cmd.RequestID, Success: false,
			Error: fmt.Sprintf("unknown command type %q", cmd.Type)})
	}
}

func (s *wsSession) handleJoin(cmd wsCommand) {
	auctionID, err := uuid.Parse(cmd.AuctionID)
	if err != nil {
		s.send(wsAck{Type: "auction:join", RequestID: cmd.RequestID, Success: false, Error: "missing or invalid auction_id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	found, err := s.server.manager.GetAuction(ctx, auctionID)
	if err != nil {
		s.send(wsAck{Type: "auction:join", RequestID: cmd.RequestID, Success: false, Error: "auction not found"})
		return
	}

	s.mu.Lock()
	alreadyJoined := s.rooms[auctionID]
	s.rooms[auctionID] = true
	s.mu.Unlock()

	if !alreadyJoined {
		s.server.eventSender.Register(event.AuctionTopic(auctionID.String()), s.events)
		s.server.broadcaster.Subscribe(auctionID, s.clientID)
	}

	s.send(wsAck{Type: "auction:join", RequestID: cmd.RequestID, Success: true, Data: gin.H{
		"auction":             hub.NewAuctionView(found, s.server.broadcaster.ParticipantCount(auctionID)),
		"participants_online": s.server.broadcaster.ParticipantCount(auctionID),
	}})
}

func (s *wsSession) handleLeave(cmd wsCommand) {
	auctionID, err := uuid.Parse(cmd.AuctionID)
	if err != nil {
		s.send(wsAck{Type: "auction:leave", RequestID: cmd.RequestID, Success: false, Error: "missing or invalid auction_id"})
		return
	}

	s.mu.Lock()
	joined := s.rooms[auctionID]
	delete(s.rooms, auctionID)
	s.mu.Unlock()

	if joined {
		s.server.broadcaster.Unsubscribe(auctionID, s.clientID)
		s.server.eventSender.Unregister(event.AuctionTopic(auctionID.String()), s.events)
	}

	s.send(wsAck{Type: "auction:leave", RequestID: cmd.RequestID, Success: true})
}

func (s *wsSession) handleBid(cmd wsCommand) {
	auctionID, err := uuid.Parse(cmd.AuctionID)
	if err != nil {
		s.send(wsAck{Type: "bid:place", RequestID: cmd.RequestID, Success: false, Error: "missing or invalid auction_id"})
		return
	}
	if cmd.Amount <= 0 {
		s.send(wsAck{Type: "bid:place", RequestID: cmd.RequestID, Success: false, Error: "bid amount must be greater than 0"})
		return
	}

	clientID := cmd.ClientID
	if clientID == "" {
		clientID = s.clientID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := s.server.manager.PlaceBid(ctx, auctionID, auction.PlaceBidParams{
		Bidder:   s.username,
		Amount:   cmd.Amount,
		ClientID: clientID,
	})
	if err != nil {
		s.send(wsAck{Type: "bid:place", RequestID: cmd.RequestID, Success: false, Error: bidErrorMessage(err)})
		return
	}

	go s.server.afterBidPlaced(result)

	s.send(wsAck{Type: "bid:place", RequestID: cmd.RequestID, Success: true, Data: gin.H{
		"bid":          result.Bid,
		"extended":     result.Extended,
		"new_end_time": result.NewEndTime,
	}})
}

func bidErrorMessage(err error) string {
	var tooLow *auction.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		return tooLow.Error()
	case errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, auction.ErrAuctionNotStarted),
		errors.Is(err, auction.ErrAuctionEnded):
		return err.Error()
	default:
		return "failed to place bid"
	}
}

// writeLoop is the only goroutine writing to the connection.
func (s *wsSession) writeLoop() {
	for {
		select {
		case ev := <-s.events:
			payload, err := json.Marshal(gin.H{"type": ev.Type, "data": ev.Data})
			if err != nil {
				continue
			}
			if err := s.write(payload); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *wsSession) send(ack wsAck) {
	payload, err := json.Marshal(ack)
	if err != nil {
		return
	}
	_ = s.write(payload)
}

func (s *wsSession) write(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// cleanup leaves every joined room in one pass and unregisters all topics.
func (s *wsSession) cleanup() {
	close(s.done)

	s.mu.Lock()
	rooms := make([]uuid.UUID, 0, len(s.rooms))
	for auctionID := range s.rooms {
		rooms = append(rooms, auctionID)
	}
	s.rooms = make(map[uuid.UUID]bool)
	s.mu.Unlock()

	s.server.broadcaster.DisconnectClient(s.clientID)
	for _, auctionID := range rooms {
		s.server.eventSender.Unregister(event.AuctionTopic(auctionID.String()), s.events)
	}
	s.server.eventSender.Unregister(event.UserTopic(s.username), s.events)
	s.server.eventSender.Unregister(event.TopicGlobal, s.events)

	_ = s.conn.Close()
}
