package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/livebid/livebid-BE/internal/db"
	"github.com/rs/zerolog/log"
)

/*
 This file contains code that will pick up the tasks from the Redis queue and process them.
*/

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// UserNotifier pushes a persisted notification to the recipient's live
// channel. Delivery is best-effort; the broadcaster implements it.
type UserNotifier interface {
	NotifyUser(recipientID string, n *db.Notification)
}

type RedisTaskProcessor struct {
	server   *asynq.Server
	store    db.Store
	notifier UserNotifier
}

func NewRedisTaskProcessor(redisOpt asynq.RedisClientOpt, store db.Store, notifier UserNotifier) *RedisTaskProcessor {
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues: map[string]int{
				QueueCritical: 10,
				QueueDefault:  5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).
					Bytes("payload", task.Payload()).Msg("process task failed")
			}),
			Logger: NewLogger(),
		},
	)

	return &RedisTaskProcessor{
		server:   server,
		store:    store,
		notifier: notifier,
	}
}

// Start registers the task handlers for the mux, attaches the mux to the asynq server, and starts the server.
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskSendNotification, processor.ProcessTaskSendNotification)

	return processor.server.Start(mux)
}

// Shutdown waits for in-flight tasks and stops the server.
func (processor *RedisTaskProcessor) Shutdown() {
	processor.server.Shutdown()
}
