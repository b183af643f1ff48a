package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides all functions to persist and query auctions. The engine
// only depends on this interface; it assumes read-after-write consistency
// for a single auction record.
type Store interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuctionByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	ListAuctions(ctx context.Context) ([]*Auction, error)
	SaveAuction(ctx context.Context, auction *Auction) error

	// Sweep queries. Both compare against the persisted deadline columns,
	// not the JSON snapshot.
	FindActiveExpired(ctx context.Context, now time.Time) ([]*Auction, error)
	FindScheduledDue(ctx context.Context, now time.Time) ([]*Auction, error)

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotificationsByRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error)
}

// NewStore creates a Postgres-backed Store.
func NewStore(connPool *pgxpool.Pool) Store {
	return &PostgresStore{connPool: connPool}
}
