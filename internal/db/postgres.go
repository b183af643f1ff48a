package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists auctions in a single table, with the bid history
// and the denormalized highest bid as JSONB columns. Deadlines are kept in
// dedicated timestamptz columns so the sweep queries can use indexes.
type PostgresStore struct {
	connPool *pgxpool.Pool
}

// Ping checks if the database connection is alive.
func (store *PostgresStore) Ping(ctx context.Context) error {
	return store.connPool.Ping(ctx)
}

const createAuctionQuery = `INSERT INTO auctions
	(id, title, description, currency, starting_price, reserve_price, bids, highest, start_time, end_time, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (store *PostgresStore) CreateAuction(ctx context.Context, auction *Auction) error {
	bids, highest, err := marshalBidColumns(auction)
	if err != nil {
		return err
	}

	_, err = store.connPool.Exec(ctx, createAuctionQuery,
		auction.ID, auction.Title, auction.Description, auction.Currency,
		auction.StartingPrice, auction.ReservePrice, bids, highest,
		auction.StartTime, auction.EndTime, auction.Status, auction.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

const auctionColumns = `id, title, description, currency, starting_price, reserve_price, bids, highest, start_time, end_time, status, created_at`

func (store *PostgresStore) GetAuctionByID(ctx context.Context, id uuid.UUID) (*Auction, error) {
	row := store.connPool.QueryRow(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	return scanAuction(row)
}

func (store *PostgresStore) ListAuctions(ctx context.Context) ([]*Auction, error) {
	rows, err := store.connPool.Query(ctx,
		`SELECT `+auctionColumns+` FROM auctions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanAuctions(rows)
}

const saveAuctionQuery = `UPDATE auctions
SET title = $2, description = $3, currency = $4, starting_price = $5,
	reserve_price = $6, bids = $7, highest = $8, start_time = $9,
	end_time = $10, status = $11
WHERE id = $1`

func (store *PostgresStore) SaveAuction(ctx context.Context, auction *Auction) error {
	bids, highest, err := marshalBidColumns(auction)
	if err != nil {
		return err
	}

	tag, err := store.connPool.Exec(ctx, saveAuctionQuery,
		auction.ID, auction.Title, auction.Description, auction.Currency,
		auction.StartingPrice, auction.ReservePrice, bids, highest,
		auction.StartTime, auction.EndTime, auction.Status)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (store *PostgresStore) FindActiveExpired(ctx context.Context, now time.Time) ([]*Auction, error) {
	rows, err := store.connPool.Query(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE status = $1 AND end_time <= $2`,
		AuctionStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanAuctions(rows)
}

func (store *PostgresStore) FindScheduledDue(ctx context.Context, now time.Time) ([]*Auction, error) {
	rows, err := store.connPool.Query(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE status = $1 AND start_time <= $2`,
		AuctionStatusScheduled, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanAuctions(rows)
}

func (store *PostgresStore) CreateNotification(ctx context.Context, n *Notification) error {
	_, err := store.connPool.Exec(ctx,
		`INSERT INTO notifications (id, recipient_id, title, message, type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.RecipientID, n.Title, n.Message, n.Type, n.ReferenceID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (store *PostgresStore) ListNotificationsByRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error) {
	rows, err := store.connPool.Query(ctx,
		`SELECT id, recipient_id, title, message, type, reference_id, created_at
		FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2`,
		recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	notifications := make([]*Notification, 0)
	for rows.Next() {
		n := new(Notification)
		err = rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.Type, &n.ReferenceID, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return notifications, nil
}

func marshalBidColumns(auction *Auction) (bids []byte, highest []byte, err error) {
	if auction.Bids == nil {
		auction.Bids = []Bid{}
	}
	bids, err = json.Marshal(auction.Bids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal bids: %w", err)
	}

	if auction.Highest != nil {
		highest, err = json.Marshal(auction.Highest)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal highest bid: %w", err)
		}
	}

	return bids, highest, nil
}

func scanAuction(row pgx.Row) (*Auction, error) {
	auction := new(Auction)
	var bids, highest []byte

	err := row.Scan(&auction.ID, &auction.Title, &auction.Description,
		&auction.Currency, &auction.StartingPrice, &auction.ReservePrice,
		&bids, &highest, &auction.StartTime, &auction.EndTime,
		&auction.Status, &auction.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err = json.Unmarshal(bids, &auction.Bids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bids: %w", err)
	}
	if highest != nil {
		auction.Highest = new(Bid)
		if err = json.Unmarshal(highest, auction.Highest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal highest bid: %w", err)
		}
	}

	return auction, nil
}

func scanAuctions(rows pgx.Rows) ([]*Auction, error) {
	auctions := make([]*Auction, 0)
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return auctions, nil
}
