package interactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs; tests inject pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists the append-only interaction log.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	if db == nil {
		panic("interactions: db cannot be nil")
	}
	return &Store{db: db}
}

// Append inserts the entry and fills in its server-assigned seq and timestamp.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if e == nil {
		return errors.New("interactions: entry required")
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO interactions (campaign_id, direction, channel, subject, body, intent, sentiment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq, created_at`,
		e.CampaignID, e.Direction, e.Channel, e.Subject, e.Body, e.Intent, e.Sentiment,
	)
	if err := row.Scan(&e.Seq, &e.CreatedAt); err != nil {
		return fmt.Errorf("interactions: append: %w", err)
	}
	return nil
}

// History returns a campaign's log in seq order. limit <= 0 returns everything.
func (s *Store) History(ctx context.Context, campaignID string, limit int) ([]Entry, error) {
	query := `
		SELECT seq, campaign_id::text, direction, channel, subject, body, intent, sentiment, created_at
		FROM interactions
		WHERE campaign_id = $1
		ORDER BY seq ASC`
	args := []any{campaignID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("interactions: history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.CampaignID, &e.Direction, &e.Channel, &e.Subject, &e.Body, &e.Intent, &e.Sentiment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("interactions: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interactions: iterate history: %w", err)
	}
	return entries, nil
}
