package pgreports

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

var ErrReportNotFound = errors.New("report not found")

// ArchivedWeek is one stored carrier week.
type ArchivedWeek struct {
	Carrier     string                `json:"carrier"`
	Metrics     scorecard.WeekMetrics `json:"metrics"`
	ReportID    string                `json:"reportId"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

func carrierKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SaveReport stores the report payload and upserts each of its weeks.
func (s *Storage) SaveReport(ctx context.Context, reportID string, r *scorecard.Report, generatedAt time.Time) error {
	if r == nil || r.Scorecard == nil {
		return errors.New("report is empty")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	weeks, err := json.Marshal(r.Weeks)
	if err != nil {
		return errors.Wrap(err, "encode weeks")
	}
	key := carrierKey(r.Carrier)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO reports (id, carrier, carrier_key, weeks, payload, generated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, reportID, r.Carrier, key, weeks, payload, generatedAt); err != nil {
		return errors.Wrap(err, "insert report")
	}

	for _, w := range r.Scorecard.Weeks {
		if _, err := tx.Exec(ctx, `
INSERT INTO scorecard_weeks (
  carrier_key, carrier, iso_year, iso_week, shipments, routes,
  otp_pct, otd_pct, tracking_pct, report_id, generated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (carrier_key, iso_year, iso_week)
DO UPDATE SET
  carrier = EXCLUDED.carrier,
  shipments = EXCLUDED.shipments,
  routes = EXCLUDED.routes,
  otp_pct = EXCLUDED.otp_pct,
  otd_pct = EXCLUDED.otd_pct,
  tracking_pct = EXCLUDED.tracking_pct,
  report_id = EXCLUDED.report_id,
  generated_at = EXCLUDED.generated_at
`, key, r.Carrier, w.Week.Year, w.Week.Week, w.Shipments, w.Routes,
			pctValue(w.OTP), pctValue(w.OTD), pctValue(w.Tracking), reportID, generatedAt); err != nil {
			return errors.Wrap(err, "upsert scorecard week")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// History returns archived weeks of a carrier, newest first.
func (s *Storage) History(ctx context.Context, carrier string, limit int) ([]ArchivedWeek, error) {
	if limit <= 0 || limit > 520 {
		limit = 52
	}
	rows, err := s.db.Query(ctx, `
SELECT carrier, iso_year, iso_week, shipments, routes,
       otp_pct, otd_pct, tracking_pct, report_id, generated_at
FROM scorecard_weeks
WHERE carrier_key = $1
ORDER BY iso_year DESC, iso_week DESC
LIMIT $2
`, carrierKey(carrier), limit)
	if err != nil {
		return nil, errors.Wrap(err, "select history")
	}
	defer rows.Close()

	out := make([]ArchivedWeek, 0, limit)
	for rows.Next() {
		var a ArchivedWeek
		var otp, otd, tracking *float64
		if err := rows.Scan(
			&a.Carrier, &a.Metrics.Week.Year, &a.Metrics.Week.Week,
			&a.Metrics.Shipments, &a.Metrics.Routes,
			&otp, &otd, &tracking, &a.ReportID, &a.GeneratedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan history")
		}
		a.Metrics.OTP = pctFrom(otp)
		a.Metrics.OTD = pctFrom(otd)
		a.Metrics.Tracking = pctFrom(tracking)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate history")
	}
	return out, nil
}

// GetReport loads a stored report payload by id.
func (s *Storage) GetReport(ctx context.Context, reportID string) (*scorecard.Report, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM reports WHERE id = $1`, reportID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(ErrReportNotFound, "id %s", reportID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select report")
	}
	var r scorecard.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, errors.Wrap(err, "decode report")
	}
	return &r, nil
}

func pctValue(p scorecard.Percent) *float64 {
	v, ok := p.Value()
	if !ok {
		return nil
	}
	return &v
}

func pctFrom(v *float64) scorecard.Percent {
	if v == nil {
		return scorecard.NoData()
	}
	return scorecard.PercentValue(*v)
}
