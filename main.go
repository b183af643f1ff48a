package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/livebid/livebid-BE/api"
	"github.com/livebid/livebid-BE/internal/auction"
	"github.com/livebid/livebid-BE/internal/db"
	"github.com/livebid/livebid-BE/internal/event"
	"github.com/livebid/livebid-BE/internal/hub"
	"github.com/livebid/livebid-BE/internal/util"
	"github.com/livebid/livebid-BE/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configurations
	config, err := util.LoadConfig("./app.env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config file 😣")
	}

	log.Info().Msg("configurations loaded successfully ✅")

	// Create connection pool
	connPool, err := pgxpool.New(context.Background(), config.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to validate db connection string 😣")
	}

	pingErr := connPool.Ping(context.Background())
	if pingErr != nil {
		log.Fatal().Err(pingErr).Msg("failed to connect to db 😣")
	}
	log.Info().Msg("connected to db ✅")

	store := db.NewStore(connPool)

	redisDb := redis.NewClient(&redis.Options{
		Addr:     config.RedisServerAddress,
		Password: "", // no password set
		DB:       0,  // use default DB
	})
	if err = redisDb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis 😣")
	}
	log.Info().Msg("connected to redis ✅")

	redisOpt := asynq.RedisClientOpt{Addr: config.RedisServerAddress}
	taskDistributor := worker.NewTaskDistributor(redisOpt)

	// Realtime fan-out
	eventSender := event.NewHub()
	broadcaster := hub.NewBroadcaster(eventSender, store, config.TickInterval)

	// Auction engine
	manager := auction.NewManager(store, auction.Config{
		MinIncrement:      config.MinBidIncrement,
		ExtensionWindow:   config.ExtensionWindow,
		ExtensionDuration: config.ExtensionDuration,
		SweepInterval:     config.SweepInterval,
	})

	sweeper, err := auction.NewSweeper(manager, broadcaster)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create status sweeper 😣")
	}
	if err = sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start status sweeper 😣")
	}
	log.Info().Msg("status sweeper started ✅")

	taskProcessor := worker.NewRedisTaskProcessor(redisOpt, store, broadcaster)
	if err = taskProcessor.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start task processor 😣")
	}
	log.Info().Msg("task processor started ✅")

	server, err := api.NewServer(store, manager, broadcaster, eventSender, taskDistributor, &config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create HTTP server 😣")
	}

	go func() {
		if err := server.Start(config.HTTPServerAddress); err != nil {
			log.Fatal().Err(err).Msg("failed to start HTTP server 😣")
		}
	}()
	log.Info().Msgf("HTTP server listening on %s ✅", config.HTTPServerAddress)

	// Shut down timers, processor and scheduler before the process exits so
	// no sweep or notification is cut off mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully")
	if err := sweeper.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop status sweeper")
	}
	taskProcessor.Shutdown()
	broadcaster.Shutdown()
	eventSender.Shutdown()
	connPool.Close()

	// Give in-flight SSE writes a moment to drain.
	time.Sleep(100 * time.Millisecond)
}
