package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/brightsmile/outreach/pkg/logging"
)

func newHandlerRouter(svc *Service) http.Handler {
	h := NewHandler(svc, "dr-1", logging.Default())
	r := chi.NewRouter()
	r.Get("/availability", h.Availability)
	r.Post("/appointments", h.BookAppointment)
	r.Post("/appointments/{appointmentID}/cancel", h.CancelAppointment)
	return r
}

func TestHandlerAvailabilityOpenDay(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	expectDayQuery(mock, "dr-1", day, pgxmock.NewRows(apptColumns))

	req := httptest.NewRequest(http.MethodGet, "/availability?date=2025-03-11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp AvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DoctorID != "dr-1" {
		t.Errorf("doctor_id = %s, want the configured default dr-1", resp.DoctorID)
	}
	if resp.Date != "2025-03-11" {
		t.Errorf("date = %s, want 2025-03-11", resp.Date)
	}
	if len(resp.Slots) != 24 {
		t.Fatalf("got %d slots, want 24 for an empty day", len(resp.Slots))
	}
	if resp.Slots[0] != "2025-03-11T09:00:00Z" {
		t.Errorf("first slot = %s, want 2025-03-11T09:00:00Z", resp.Slots[0])
	}
	if resp.Slots[len(resp.Slots)-1] != "2025-03-11T20:30:00Z" {
		t.Errorf("last slot = %s, want 2025-03-11T20:30:00Z", resp.Slots[len(resp.Slots)-1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerAvailabilityDoctorParam(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	expectDayQuery(mock, "dr-9", day, pgxmock.NewRows(apptColumns))

	req := httptest.NewRequest(http.MethodGet, "/availability?doctor_id=dr-9&date=2025-03-11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerAvailabilityFullyBookedDay(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	// One 720-minute block covers every slot from 09:00 through 20:30.
	taken := pgxmock.NewRows(apptColumns).AddRow(
		"a-0", "dr-1", "p-0", "", day.Add(9*time.Hour), 720,
		StatusBooked, CreatedFromAdmin, bookNow, bookNow)
	expectDayQuery(mock, "dr-1", day, taken)

	req := httptest.NewRequest(http.MethodGet, "/availability?date=2025-03-11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a booked-out day: %s", rec.Code, rec.Body.String())
	}
	var resp AvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 0 {
		t.Errorf("got %d slots, want none", len(resp.Slots))
	}
	if !strings.Contains(rec.Body.String(), `"slots":[]`) {
		t.Errorf("slots should encode as an empty array, got %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerAvailabilityValidation(t *testing.T) {
	cases := []struct {
		name       string
		target     string
		wantStatus int
		wantReason string
	}{
		{
			name:       "missing date",
			target:     "/availability",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed date",
			target:     "/availability?date=03%2F11%2F2025",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "beyond horizon",
			target:     "/availability?date=2025-08-11",
			wantStatus: http.StatusUnprocessableEntity,
			wantReason: "invalid_date",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			router := newHandlerRouter(svc)

			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantReason != "" {
				var resp errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Reason != tc.wantReason {
					t.Errorf("reason = %s, want %s", resp.Reason, tc.wantReason)
				}
			}
		})
	}
}

func TestHandlerBookAppointment(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	start := time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	expectDayQuery(mock, "dr-1", day, pgxmock.NewRows(apptColumns))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), "dr-1", "p-1", "c-1", start, 45, StatusBooked, CreatedFromAdmin).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(bookNow, bookNow))
	mock.ExpectExec("INSERT INTO slot_locks").
		WithArgs("dr-1", start, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO slot_locks").
		WithArgs("dr-1", start.Add(30*time.Minute), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	body := `{"patient_id":"p-1","campaign_id":"c-1","starts_at":"2025-03-11T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	if appt.ID == "" {
		t.Error("expected an assigned appointment id")
	}
	if appt.DoctorID != "dr-1" {
		t.Errorf("doctor_id = %s, want the configured default dr-1", appt.DoctorID)
	}
	if appt.DurationMinutes != 45 {
		t.Errorf("duration = %d, want the 45-minute default", appt.DurationMinutes)
	}
	if appt.CreatedFrom != CreatedFromAdmin {
		t.Errorf("created_from = %s, want %s", appt.CreatedFrom, CreatedFromAdmin)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerBookValidation(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "malformed body",
			body:       "{",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing patient",
			body:       `{"starts_at":"2025-03-11T10:00:00Z"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing start",
			body:       `{"patient_id":"p-1"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			router := newHandlerRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerBookRaceLoserGetsConflict(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	start := time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
	expectDayQuery(mock, "dr-1", day, pgxmock.NewRows(apptColumns))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), "dr-1", "p-1", "", start, 45, StatusBooked, CreatedFromAdmin).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(bookNow, bookNow))
	mock.ExpectExec("INSERT INTO slot_locks").
		WithArgs("dr-1", start, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "slot_locks_pkey"})
	mock.ExpectRollback()

	body := `{"patient_id":"p-1","starts_at":"2025-03-11T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Reason != "slot_conflict" {
		t.Errorf("reason = %s, want slot_conflict", resp.Reason)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerBookTakenSlot(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	start := time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	taken := pgxmock.NewRows(apptColumns).AddRow(
		"a-0", "dr-1", "p-0", "", start.Add(30*time.Minute), 30,
		StatusBooked, CreatedFromAgent, bookNow, bookNow)
	expectDayQuery(mock, "dr-1", day, taken)

	body := `{"patient_id":"p-1","starts_at":"2025-03-11T10:00:00Z","duration_minutes":45}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Reason != "slot_unavailable" {
		t.Errorf("reason = %s, want slot_unavailable", resp.Reason)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerCancelAppointment(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	start := time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("a-1").
		WillReturnRows(pgxmock.NewRows(apptColumns).AddRow(
			"a-1", "dr-1", "p-1", "", start, 45, StatusBooked, CreatedFromAdmin, bookNow, bookNow))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs("a-1", StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM slot_locks").
		WithArgs("a-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/appointments/a-1/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	if appt.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", appt.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerCancelUnknownAppointment(t *testing.T) {
	svc, mock := newTestService(t)
	router := newHandlerRouter(svc)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodPost, "/appointments/missing/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
