package patients

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, patient_type, treatments, last_visit_at, created_at, updated_at
		FROM patients WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.Type,
		pq.Array(&p.Treatments), &p.LastVisit, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Treatments == nil {
		p.Treatments = []string{}
	}
	return &p, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	var p Patient
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, patient_type, treatments, last_visit_at, created_at, updated_at
		FROM patients WHERE lower(email) = lower($1)`, strings.TrimSpace(email)).Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.Type,
		pq.Array(&p.Treatments), &p.LastVisit, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Treatments == nil {
		p.Treatments = []string{}
	}
	return &p, nil
}

// Upsert creates the patient or refreshes an existing record matched by
// email. The stored id wins on conflict so campaign references stay stable.
func (r *Repository) Upsert(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Type == "" {
		p.Type = TypeExisting
	}
	if p.Treatments == nil {
		p.Treatments = []string{}
	}
	now := time.Now()
	return r.db.QueryRowContext(ctx, `
		INSERT INTO patients (id, name, email, phone, patient_type, treatments, last_visit_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (lower(email)) DO UPDATE SET
		    name=EXCLUDED.name, phone=EXCLUDED.phone, patient_type=EXCLUDED.patient_type,
		    treatments=EXCLUDED.treatments, last_visit_at=EXCLUDED.last_visit_at, updated_at=$8
		RETURNING id, created_at, updated_at`,
		p.ID, p.Name, strings.TrimSpace(p.Email), p.Phone, p.Type,
		pq.Array(p.Treatments), p.LastVisit, now).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *Repository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, patient_type, treatments, last_visit_at, created_at, updated_at
		FROM patients ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Type,
			pq.Array(&p.Treatments), &p.LastVisit, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Treatments == nil {
			p.Treatments = []string{}
		}
		out = append(out, p)
	}
	if out == nil {
		out = []Patient{}
	}
	return out, rows.Err()
}
