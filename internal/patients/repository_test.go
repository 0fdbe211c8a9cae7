package patients

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patientColumns = []string{
	"id", "name", "email", "phone", "patient_type", "treatments", "last_visit_at", "created_at", "updated_at",
}

func TestGetScansTreatmentsArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM patients WHERE id").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(patientColumns).
			AddRow("p-1", "Maria Silva", "maria@example.com", "+5511999990000", "EXISTING",
				pq.Array([]string{"implant", "whitening"}), nil, now, now))

	repo := NewRepository(db)
	p, err := repo.Get(context.Background(), "p-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Maria Silva", p.Name)
	assert.Equal(t, TypeExisting, p.Type)
	assert.Equal(t, []string{"implant", "whitening"}, p.Treatments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM patients WHERE id").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(patientColumns))

	repo := NewRepository(db)
	p, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetByEmailCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM patients WHERE lower\\(email\\) = lower").
		WithArgs("Maria@Example.com").
		WillReturnRows(sqlmock.NewRows(patientColumns).
			AddRow("p-1", "Maria Silva", "maria@example.com", "", "COLD_LEAD",
				pq.Array([]string{}), nil, now, now))

	repo := NewRepository(db)
	p, err := repo.GetByEmail(context.Background(), " Maria@Example.com ")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, TypeColdLead, p.Type)
	assert.Equal(t, []string{}, p.Treatments)
}

func TestUpsertAssignsIDAndTimestamps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO patients").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("p-9", now, now))

	repo := NewRepository(db)
	p := &Patient{Name: "João", Email: "joao@example.com", Type: TypeColdLead}
	require.NoError(t, repo.Upsert(context.Background(), p))
	assert.Equal(t, "p-9", p.ID)
	assert.WithinDuration(t, now, p.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
