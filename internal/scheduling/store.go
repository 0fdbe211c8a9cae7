package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists appointments and their slot locks in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("scheduling: pool required")
	}
	return &Store{pool: pool}
}

const appointmentColumns = `id::text, doctor_id, patient_id::text, COALESCE(campaign_id::text, ''), starts_at, duration_minutes, status, created_from, created_at, updated_at`

// CreateWithLocks inserts the appointment and one lock row per covered slot
// in a single transaction. A primary key collision on any lock row means a
// concurrent booking already owns part of the interval, and the whole write
// rolls back with ErrSlotConflict.
func (s *Store) CreateWithLocks(ctx context.Context, a *Appointment, lockSlots []time.Time) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = StatusBooked
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("scheduling: begin booking: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, campaign_id, starts_at, duration_minutes, status, created_from)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.PatientID, a.CampaignID, a.StartsAt, a.DurationMinutes, a.Status, a.CreatedFrom).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("scheduling: insert appointment: %w", err)
	}

	for _, slot := range lockSlots {
		if _, err := tx.Exec(ctx, `
			INSERT INTO slot_locks (doctor_id, slot_start, appointment_id)
			VALUES ($1, $2, $3)`, a.DoctorID, slot, a.ID); err != nil {
			if isUniqueViolation(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("scheduling: lock slot %s: %w", slot.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("scheduling: commit booking: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Appointment, error) {
	var a Appointment
	err := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1`, id).Scan(
		&a.ID, &a.DoctorID, &a.PatientID, &a.CampaignID, &a.StartsAt,
		&a.DurationMinutes, &a.Status, &a.CreatedFrom, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get appointment: %w", err)
	}
	return &a, nil
}

// GetByCampaign returns the newest booked appointment created from the
// campaign, for reminder copy.
func (s *Store) GetByCampaign(ctx context.Context, campaignID string) (*Appointment, error) {
	var a Appointment
	err := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE campaign_id = $1 AND status = 'booked'
		ORDER BY created_at DESC
		LIMIT 1`, campaignID).Scan(
		&a.ID, &a.DoctorID, &a.PatientID, &a.CampaignID, &a.StartsAt,
		&a.DurationMinutes, &a.Status, &a.CreatedFrom, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get appointment by campaign: %w", err)
	}
	return &a, nil
}

// ListActiveByDoctorBetween returns booked appointments overlapping the
// half-open window [from, to).
func (s *Store) ListActiveByDoctorBetween(ctx context.Context, doctorID string, from, to time.Time) ([]Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status = 'booked'
		  AND starts_at < $3
		  AND starts_at + make_interval(mins => duration_minutes) > $2
		ORDER BY starts_at`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.CampaignID, &a.StartsAt,
			&a.DurationMinutes, &a.Status, &a.CreatedFrom, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scheduling: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStatus moves the appointment to status. Leaving the booked state
// also deletes the slot locks: a cancelled interval opens up again and a
// completed one is spent.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("scheduling: begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("scheduling: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if status != StatusBooked {
		if _, err := tx.Exec(ctx, `DELETE FROM slot_locks WHERE appointment_id = $1`, id); err != nil {
			return fmt.Errorf("scheduling: free slot locks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("scheduling: commit status update: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
