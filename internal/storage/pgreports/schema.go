package pgreports

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  carrier TEXT NOT NULL,
  carrier_key TEXT NOT NULL,
  weeks JSONB NOT NULL,
  payload JSONB NOT NULL,
  generated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_carrier_key_generated_at ON reports(carrier_key, generated_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS scorecard_weeks (
  id BIGSERIAL PRIMARY KEY,
  carrier_key TEXT NOT NULL,
  carrier TEXT NOT NULL,
  iso_year INT NOT NULL,
  iso_week INT NOT NULL,
  shipments INT NOT NULL,
  routes INT NOT NULL,
  otp_pct DOUBLE PRECISION NULL,
  otd_pct DOUBLE PRECISION NULL,
  tracking_pct DOUBLE PRECISION NULL,
  report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
  generated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (carrier_key, iso_year, iso_week)
)`,
		// Latest report wins per carrier week; history reads newest weeks first.
		`CREATE INDEX IF NOT EXISTS idx_scorecard_weeks_history ON scorecard_weeks(carrier_key, iso_year DESC, iso_week DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
