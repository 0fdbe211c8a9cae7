package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the store needs; tests inject pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists campaigns in Postgres. Every write that follows a read goes
// through Update, which compares versions so concurrent writers cannot
// silently overwrite each other.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("campaign: pool required")
	}
	return &Store{pool: pool}
}

const campaignColumns = `id::text, patient_id::text, campaign_type, state, channel, doctor_id, service_name, thread_id, engagement_summary, attempts_made, max_attempts, next_attempt_at, offered_slots, version, created_at, updated_at`

// nonTerminalStates mirrors the partial index on next_attempt_at.
const nonTerminalStates = `('INITIATED', 'ATTEMPTING_RECOVERY', 'ATTEMPTING_RECALL', 'ENGAGED', 'AWAITING_REPLY', 'BOOKING_IN_PROGRESS')`

// Create inserts the campaign and fills in its server-assigned fields.
func (s *Store) Create(ctx context.Context, c *Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.State == "" {
		c.State = StateInitiated
	}
	if c.Channel == "" {
		c.Channel = ChannelEmail
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO campaigns (id, patient_id, campaign_type, state, channel, doctor_id, service_name, thread_id, attempts_made, max_attempts, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING version, created_at, updated_at`,
		c.ID, c.PatientID, c.Type, c.State, c.Channel, c.DoctorID, c.Service, c.ThreadID,
		c.FollowUp.AttemptsMade, c.FollowUp.MaxAttempts, c.FollowUp.NextAttemptAt).
		Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("campaign: create: %w", err)
	}
	return nil
}

// Get loads one campaign by id.
func (s *Store) Get(ctx context.Context, id string) (*Campaign, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("campaign: get: %w", err)
	}
	return c, nil
}

// GetByThread resolves an inbound reply to its campaign through the mail
// thread. The newest campaign wins if a thread was ever reused.
func (s *Store) GetByThread(ctx context.Context, threadID string) (*Campaign, error) {
	if threadID == "" {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE thread_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, threadID)
	c, err := scanCampaign(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("campaign: get by thread: %w", err)
	}
	return c, nil
}

// GetLatestByPatient returns the patient's most recent campaign. Replies
// that arrive without a usable thread id fall back to this.
func (s *Store) GetLatestByPatient(ctx context.Context, patientID string) (*Campaign, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, patientID)
	c, err := scanCampaign(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("campaign: get latest by patient: %w", err)
	}
	return c, nil
}

// Update writes the campaign back if nobody else has since. On success the
// in-memory version and timestamp move forward; on a version mismatch it
// returns ErrConcurrentModification and writes nothing.
func (s *Store) Update(ctx context.Context, c *Campaign) error {
	offered := c.OfferedSlots
	if offered == nil {
		offered = []time.Time{}
	}

	err := s.pool.QueryRow(ctx, `
		UPDATE campaigns
		SET state = $3, channel = $4, doctor_id = $5, service_name = $6, thread_id = $7,
		    engagement_summary = $8, attempts_made = $9, max_attempts = $10,
		    next_attempt_at = $11, offered_slots = $12,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`,
		c.ID, c.Version, c.State, c.Channel, c.DoctorID, c.Service, c.ThreadID,
		c.EngagementSummary, c.FollowUp.AttemptsMade, c.FollowUp.MaxAttempts,
		c.FollowUp.NextAttemptAt, offered).
		Scan(&c.Version, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrConcurrentModification
	}
	if err != nil {
		return fmt.Errorf("campaign: update: %w", err)
	}
	return nil
}

// ListDue returns non-terminal campaigns whose timer has fired, oldest timer
// first. Campaigns never attempted and never scheduled count as due.
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]Campaign, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE state IN `+nonTerminalStates+`
		  AND ((next_attempt_at IS NOT NULL AND next_attempt_at <= $1)
		    OR (next_attempt_at IS NULL AND attempts_made = 0))
		ORDER BY next_attempt_at ASC NULLS FIRST
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("campaign: list due: %w", err)
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("campaign: scan due campaign: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaign: iterate due campaigns: %w", err)
	}
	return out, nil
}

func scanCampaign(row pgx.Row) (*Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID, &c.PatientID, &c.Type, &c.State, &c.Channel, &c.DoctorID, &c.Service,
		&c.ThreadID, &c.EngagementSummary,
		&c.FollowUp.AttemptsMade, &c.FollowUp.MaxAttempts, &c.FollowUp.NextAttemptAt,
		&c.OfferedSlots, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
