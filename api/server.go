package api

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/livebid/livebid-BE/internal/auction"
	"github.com/livebid/livebid-BE/internal/db"
	"github.com/livebid/livebid-BE/internal/event"
	"github.com/livebid/livebid-BE/internal/hub"
	"github.com/livebid/livebid-BE/internal/token"
	"github.com/livebid/livebid-BE/internal/util"
	"github.com/livebid/livebid-BE/internal/worker"
	"github.com/rs/zerolog/log"
)

type Server struct {
	router          *gin.Engine
	dbStore         db.Store
	manager         *auction.Manager
	broadcaster     *hub.Broadcaster
	eventSender     event.Sender
	tokenMaker      token.Maker
	config          *util.Config
	taskDistributor worker.TaskDistributor
}

// NewServer creates a new HTTP server and set up routing.
func NewServer(store db.Store, manager *auction.Manager, broadcaster *hub.Broadcaster, eventSender event.Sender, taskDistributor worker.TaskDistributor, config *util.Config) (*Server, error) {
	// Create a new JWT token maker
	tokenMaker, err := token.NewJWTMaker(config.TokenSecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token maker: %w", err)
	}
	log.Info().Msg("Token maker created successfully ✅")

	server := &Server{
		dbStore:         store,
		manager:         manager,
		broadcaster:     broadcaster,
		eventSender:     eventSender,
		tokenMaker:      tokenMaker,
		config:          config,
		taskDistributor: taskDistributor,
	}

	server.setupRouter()
	return server, nil
}

// setupRouter configures the HTTP server routes.
func (server *Server) setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	v1 := router.Group("/v1")

	v1.POST("/auth/connect", server.connectUser)

	v1.GET("/auctions", server.listAuctions)
	v1.GET("/auctions/:auctionID", server.getAuction)
	v1.GET("/auctions/:auctionID/bids", server.listAuctionBids)
	v1.GET("/auctions/:auctionID/stream", server.streamAuctionEvents)
	v1.GET("/stream", server.streamGlobalEvents)
	v1.GET("/ws", server.serveWS)

	authRoutes := v1.Group("/").Use(authMiddleware(server.tokenMaker))
	authRoutes.POST("/auctions", server.createAuction)
	authRoutes.POST("/auctions/:auctionID/bids", server.placeBid)
	authRoutes.GET("/users/me/notifications", server.listMyNotifications)
	authRoutes.GET("/users/me/notifications/stream", server.streamUserNotifications)

	server.router = router
	return router
}

// Start runs the HTTP server on a specific address.
func (server *Server) Start(address string) error {
	return server.router.Run(address)
}
