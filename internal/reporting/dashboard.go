package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/brightsmile/outreach/pkg/logging"
)

type funnelDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type funnelRepo interface {
	FunnelByDay(ctx context.Context, start, end time.Time) ([]FunnelDay, error)
}

// FunnelDay counts campaign outcomes by the day the campaign was opened.
// Conversions attribute to the opening day, not the day the booking landed,
// so a day's conversion rate stabilizes once its campaigns close.
type FunnelDay struct {
	Day      time.Time `json:"-"`
	DayLabel string    `json:"day"`
	Started  int64     `json:"campaigns_started"`
	Booked   int64     `json:"campaigns_booked"`
	Declined int64     `json:"campaigns_declined"`
}

// ReplyLatencySnapshot summarizes the reply-handling histogram across intents.
type ReplyLatencySnapshot struct {
	Total   int64           `json:"total"`
	P90Ms   float64         `json:"p90_ms"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets"`
}

type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// Dashboard is the staff operations view: how outreach is converting and how
// fast the reply pipeline is running.
type Dashboard struct {
	PeriodStart   string               `json:"period_start"`
	PeriodEnd     string               `json:"period_end"`
	Started       int64                `json:"campaigns_started"`
	Booked        int64                `json:"campaigns_booked"`
	Declined      int64                `json:"campaigns_declined"`
	ConversionPct float64              `json:"conversion_pct"`
	ReplyLatency  ReplyLatencySnapshot `json:"reply_latency"`
	Daily         []FunnelDay          `json:"daily"`
}

// FunnelRepository reads campaign funnel counts from Postgres.
type FunnelRepository struct {
	db funnelDB
}

func NewFunnelRepository(pool *pgxpool.Pool) *FunnelRepository {
	if pool == nil {
		panic("reporting: pgx pool required for funnel queries")
	}
	return &FunnelRepository{db: pool}
}

func NewFunnelRepositoryWithDB(db funnelDB) *FunnelRepository {
	return &FunnelRepository{db: db}
}

func (r *FunnelRepository) FunnelByDay(ctx context.Context, start, end time.Time) ([]FunnelDay, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("reporting: invalid time range")
	}

	query := `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*) AS started,
		       COUNT(*) FILTER (WHERE state IN ('RECOVERED', 'BOOKED')) AS booked,
		       COUNT(*) FILTER (WHERE state = 'DECLINED') AS declined
		FROM campaigns
		WHERE created_at >= $1
		  AND created_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("reporting: query funnel: %w", err)
	}
	defer rows.Close()

	var results []FunnelDay
	for rows.Next() {
		var day time.Time
		var started, booked, declined int64
		if err := rows.Scan(&day, &started, &booked, &declined); err != nil {
			return nil, fmt.Errorf("reporting: scan funnel: %w", err)
		}
		results = append(results, FunnelDay{
			Day:      day.UTC(),
			DayLabel: day.UTC().Format("2006-01-02"),
			Started:  started,
			Booked:   booked,
			Declined: declined,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reporting: iterate funnel: %w", err)
	}
	return results, nil
}

// DashboardHandler serves the outreach operations dashboard.
type DashboardHandler struct {
	repo     funnelRepo
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewDashboardHandler(repo funnelRepo, gatherer prometheus.Gatherer, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &DashboardHandler{
		repo:     repo,
		gatherer: gatherer,
		logger:   logger,
	}
}

// GetDashboard returns outreach funnel counts plus reply latency.
// GET /api/v1/outreach/dashboard
// Query params:
//   - start: RFC3339 timestamp (optional, requires end)
//   - end: RFC3339 timestamp (optional, requires start)
//   - days: integer window (default 7) when start/end omitted
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, `{"error":"dashboard disabled (db not configured)"}`, http.StatusServiceUnavailable)
		return
	}

	start, end, err := parseWindow(r)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	daily, err := h.repo.FunnelByDay(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to query outreach funnel", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	daily = fillMissingDays(daily, start, end)

	var started, booked, declined int64
	for _, day := range daily {
		started += day.Started
		booked += day.Booked
		declined += day.Declined
	}

	conversionPct := 0.0
	if started > 0 {
		conversionPct = (float64(booked) / float64(started)) * 100.0
	}

	resp := Dashboard{
		PeriodStart:   start.UTC().Format(time.RFC3339),
		PeriodEnd:     end.UTC().Format(time.RFC3339),
		Started:       started,
		Booked:        booked,
		Declined:      declined,
		ConversionPct: conversionPct,
		ReplyLatency:  snapshotReplyLatency(h.gatherer),
		Daily:         daily,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))
	if (startRaw == "") != (endRaw == "") {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time, use RFC3339 format")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time, use RFC3339 format")
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
		}
		return start.UTC(), end.UTC(), nil
	}

	days := 7
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid days; must be 1-90")
		}
		days = parsed
	}

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -days)
	return start, end, nil
}

// fillMissingDays inserts zero rows for days without campaigns so charts get
// a continuous series.
func fillMissingDays(existing []FunnelDay, start, end time.Time) []FunnelDay {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	lookup := map[string]FunnelDay{}
	for _, d := range existing {
		lookup[d.Day.UTC().Format("2006-01-02")] = d
	}

	out := make([]FunnelDay, 0, int(endDay.Sub(startDay).Hours()/24)+1)
	for day := startDay; day.Before(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if found, ok := lookup[key]; ok {
			out = append(out, found)
			continue
		}
		out = append(out, FunnelDay{Day: day, DayLabel: key})
	}
	return out
}

// snapshotReplyLatency aggregates the reply-handling histogram across all
// intent labels into one p90/p95 view.
func snapshotReplyLatency(gatherer prometheus.Gatherer) ReplyLatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return ReplyLatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == "outreach_replies_handle_latency_seconds" {
			family = mf
			break
		}
	}
	if family == nil {
		return ReplyLatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64

	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return ReplyLatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFiniteUpper float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(cum)
		if cum >= prev {
			count = int64(cum - prev)
		}

		if math.IsInf(upper, 1) {
			if count > 0 {
				buckets = append(buckets, LatencyBucket{
					LeSeconds: lastFiniteUpper,
					Label:     fmt.Sprintf(">%s", formatSeconds(lastFiniteUpper)),
					Count:     count,
				})
			}
			prev = cum
			continue
		}

		lastFiniteUpper = upper
		buckets = append(buckets, LatencyBucket{LeSeconds: upper, Count: count})
		prev = cum
	}

	return ReplyLatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms:   histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		Buckets: buckets,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}

		// Without a populated span to interpolate across, the bucket's upper
		// bound is the best answer available.
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}

		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		return prevUpper + fraction*(upper-prevUpper)
	}

	return uppers[len(uppers)-1]
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	if seconds < 1 {
		return fmt.Sprintf("%.2fs", seconds)
	}
	if seconds < 10 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	return fmt.Sprintf("%.0fs", seconds)
}
