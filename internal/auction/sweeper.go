package auction

import (
	"context"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// SweepNotifier receives the transitions a sweep produced, after the
// per-auction locks have been released. The hub implements it to broadcast
// status changes and to stop tick timers for ended auctions.
type SweepNotifier interface {
	AuctionActivated(change StatusChange)
	AuctionEnded(change StatusChange)
}

// Sweeper drives time-triggered transitions for auctions nobody is actively
// bidding on. Correctness does not depend on the exact period, only on
// detection within one period of the deadline.
type Sweeper struct {
	manager   *Manager
	notifier  SweepNotifier
	scheduler gocron.Scheduler
}

func NewSweeper(manager *Manager, notifier SweepNotifier) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		manager:   manager,
		notifier:  notifier,
		scheduler: scheduler,
	}, nil
}

// Start begins the periodic sweep job.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.manager.config.SweepInterval),
		gocron.NewTask(func() {
			s.SweepOnce(context.Background())
		}),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down and waits for a running sweep to finish.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

// SweepOnce runs a single sweep pass and hands the resulting transitions to
// the notifier.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	result, err := s.manager.UpdateAuctionStatuses(ctx)
	if err != nil {
		log.Error().Err(err).Msg("status sweep failed")
		return
	}

	for _, change := range result.Ended {
		s.notifier.AuctionEnded(change)
	}
	for _, change := range result.Activated {
		s.notifier.AuctionActivated(change)
	}
}
