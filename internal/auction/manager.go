package auction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/livebid/livebid-BE/internal/db"
	"github.com/rs/zerolog/log"
)

// Manager owns the auction state machine and bid acceptance. All writes to
// one auction, whether bid-driven or sweep-driven, go through the same
// per-auction lock; auctions never share a critical section.
type Manager struct {
	store  db.Store
	locks  *KeyedLock
	config Config

	// now is swappable in tests.
	now func() time.Time
}

func NewManager(store db.Store, config Config) *Manager {
	return &Manager{
		store:  store,
		locks:  NewKeyedLock(),
		config: config,
		now:    time.Now,
	}
}

type CreateAuctionParams struct {
	Title         string
	Description   string
	Currency      string
	StartingPrice int64
	ReservePrice  *int64
	StartTime     time.Time
	EndTime       time.Time
}

// CreateAuction persists a new auction. A future start time creates it
// scheduled, otherwise it is active immediately.
func (m *Manager) CreateAuction(ctx context.Context, params CreateAuctionParams) (*db.Auction, error) {
	now := m.now()

	startTime := params.StartTime
	if startTime.IsZero() {
		startTime = now
	}
	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}

	status := db.AuctionStatusActive
	if startTime.After(now) {
		status = db.AuctionStatusScheduled
	}

	auction := &db.Auction{
		ID:            uuid.New(),
		Title:         params.Title,
		Description:   params.Description,
		Currency:      currency,
		StartingPrice: params.StartingPrice,
		ReservePrice:  params.ReservePrice,
		Bids:          []db.Bid{},
		StartTime:     startTime,
		EndTime:       params.EndTime,
		Status:        status,
		CreatedAt:     now,
	}

	if err := m.store.CreateAuction(ctx, auction); err != nil {
		return nil, err
	}

	return auction, nil
}

func (m *Manager) GetAuction(ctx context.Context, id uuid.UUID) (*db.Auction, error) {
	auction, err := m.store.GetAuctionByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}
	return auction, nil
}

// AuctionList groups auctions by their effective state at the current wall
// clock, independent of whether the sweeper has caught up yet.
type AuctionList struct {
	Active    []*db.Auction `json:"active"`
	Scheduled []*db.Auction `json:"scheduled"`
	Ended     []*db.Auction `json:"ended"`
}

func (m *Manager) ListAuctions(ctx context.Context) (*AuctionList, error) {
	auctions, err := m.store.ListAuctions(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	list := &AuctionList{
		Active:    []*db.Auction{},
		Scheduled: []*db.Auction{},
		Ended:     []*db.Auction{},
	}
	for _, auction := range auctions {
		switch {
		case auction.Status == db.AuctionStatusEnded || !auction.EndTime.After(now):
			list.Ended = append(list.Ended, auction)
		case auction.StartTime.After(now):
			list.Scheduled = append(list.Scheduled, auction)
		default:
			list.Active = append(list.Active, auction)
		}
	}

	return list, nil
}

type PlaceBidParams struct {
	Bidder      string
	Amount      int64
	ClientID    string
	SubmittedAt time.Time
}

type PlaceBidResult struct {
	Bid             db.Bid
	Extended        bool
	NewEndTime      time.Time
	PreviousHighest *db.Bid
	// Auction is the post-bid snapshot.
	Auction *db.Auction
}

// PlaceBid validates and applies one bid under the auction's exclusive lock.
// The snapshot is loaded after admission so every decision sees the result
// of the previous bid. Broadcast is the caller's job and must never be done
// while the lock is held.
func (m *Manager) PlaceBid(ctx context.Context, auctionID uuid.UUID, params PlaceBidParams) (*PlaceBidResult, error) {
	release := m.locks.Lock(auctionID.String())
	defer release()

	auction, err := m.store.GetAuctionByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}

	now := params.SubmittedAt
	if now.IsZero() {
		now = m.now()
	}

	if auction.Status == db.AuctionStatusScheduled {
		return nil, ErrAuctionNotStarted
	}

	if auction.Status == db.AuctionStatusEnded || !now.Before(auction.EndTime) {
		// Lazy transition: the deadline passed before the sweeper noticed.
		// The bid is rejected but the terminal state is still persisted.
		if auction.Status != db.AuctionStatusEnded {
			auction.Status = db.AuctionStatusEnded
			if saveErr := m.store.SaveAuction(ctx, auction); saveErr != nil {
				log.Error().Err(saveErr).
					Str("auction_id", auctionID.String()).
					Msg("failed to persist lazy ended transition")
			}
		}
		return nil, ErrAuctionEnded
	}

	minAmount := auction.StartingPrice
	if auction.Highest != nil {
		minAmount = auction.Highest.Amount + m.config.MinIncrement
	}
	if params.Amount < minAmount {
		return nil, &BidTooLowError{Minimum: minAmount}
	}

	var previousHighest *db.Bid
	if auction.Highest != nil {
		prev := *auction.Highest
		previousHighest = &prev
	}

	bidder := params.Bidder
	if bidder == "" {
		bidder = "Anonymous"
	}
	bid := db.Bid{
		ID:       uuid.New(),
		Bidder:   bidder,
		Amount:   params.Amount,
		ClientID: params.ClientID,
		PlacedAt: now,
	}
	auction.Bids = append(auction.Bids, bid)
	auction.Highest = &bid

	extended := false
	if auction.EndTime.Sub(now) <= m.config.ExtensionWindow {
		// Compound from the current deadline, not from now, so back-to-back
		// snipe attempts keep pushing the close out.
		auction.EndTime = auction.EndTime.Add(m.config.ExtensionDuration)
		extended = true
	}

	if err = m.store.SaveAuction(ctx, auction); err != nil {
		return nil, err
	}

	log.Info().
		Str("auction_id", auctionID.String()).
		Str("bidder", bid.Bidder).
		Int64("amount", bid.Amount).
		Bool("extended", extended).
		Msg("bid accepted")

	return &PlaceBidResult{
		Bid:             bid,
		Extended:        extended,
		NewEndTime:      auction.EndTime,
		PreviousHighest: previousHighest,
		Auction:         auction,
	}, nil
}

// StatusChange describes one sweep-driven transition.
type StatusChange struct {
	AuctionID uuid.UUID        `json:"auction_id"`
	OldStatus db.AuctionStatus `json:"old_status"`
	NewStatus db.AuctionStatus `json:"new_status"`
	// Auction is the post-transition snapshot.
	Auction *db.Auction `json:"auction"`
}

type SweepResult struct {
	Ended     []StatusChange
	Activated []StatusChange
}

// UpdateAuctionStatuses advances every auction whose start or end deadline
// has elapsed. Each candidate is re-checked against a fresh snapshot under
// its lock, so a bid racing with the sweep (possibly extending the deadline)
// wins cleanly.
func (m *Manager) UpdateAuctionStatuses(ctx context.Context) (*SweepResult, error) {
	now := m.now()
	result := &SweepResult{}

	expired, err := m.store.FindActiveExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, candidate := range expired {
		change, err := m.transition(ctx, candidate.ID, db.AuctionStatusActive, db.AuctionStatusEnded, func(a *db.Auction) bool {
			return !a.EndTime.After(now)
		})
		if err != nil {
			log.Error().Err(err).
				Str("auction_id", candidate.ID.String()).
				Msg("failed to end expired auction")
			continue
		}
		if change != nil {
			result.Ended = append(result.Ended, *change)
		}
	}

	due, err := m.store.FindScheduledDue(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, candidate := range due {
		change, err := m.transition(ctx, candidate.ID, db.AuctionStatusScheduled, db.AuctionStatusActive, func(a *db.Auction) bool {
			return !a.StartTime.After(now)
		})
		if err != nil {
			log.Error().Err(err).
				Str("auction_id", candidate.ID.String()).
				Msg("failed to activate scheduled auction")
			continue
		}
		if change != nil {
			result.Activated = append(result.Activated, *change)
		}
	}

	return result, nil
}

// transition applies from→to for one auction if the freshly loaded snapshot
// still qualifies. Returns nil without error when another path got there
// first.
func (m *Manager) transition(ctx context.Context, id uuid.UUID, from, to db.AuctionStatus, due func(*db.Auction) bool) (*StatusChange, error) {
	release := m.locks.Lock(id.String())
	defer release()

	auction, err := m.store.GetAuctionByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if auction.Status != from || !due(auction) {
		return nil, nil
	}

	auction.Status = to
	if err = m.store.SaveAuction(ctx, auction); err != nil {
		return nil, err
	}

	log.Info().
		Str("auction_id", id.String()).
		Str("old_status", string(from)).
		Str("new_status", string(to)).
		Msg("auction status updated")

	return &StatusChange{
		AuctionID: id,
		OldStatus: from,
		NewStatus: to,
		Auction:   auction,
	}, nil
}
