package pgreports

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func report(carrier string, weeks ...scorecard.WeekMetrics) *scorecard.Report {
	keys := make([]models.WeekKey, 0, len(weeks))
	for _, w := range weeks {
		keys = append(keys, w.Week)
	}
	return &scorecard.Report{
		Carrier:   carrier,
		Weeks:     keys,
		Scorecard: &scorecard.Scorecard{Carrier: carrier, Weeks: weeks},
		Delays:    &scorecard.DelayAnalysis{},
	}
}

func TestPctRoundTrip(t *testing.T) {
	require.Nil(t, pctValue(scorecard.NoData()))
	require.Equal(t, scorecard.NoData(), pctFrom(nil))
	require.Equal(t, scorecard.PercentValue(97.5), pctFrom(pctValue(scorecard.PercentValue(97.5))))
	require.Equal(t, "acme co", carrierKey("  Acme Co "))
}

func TestPGReports_RepoFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "scorebox_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/scorebox_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Ping(ctx))

	w5 := models.WeekKey{Year: 2025, Week: 5}
	w6 := models.WeekKey{Year: 2025, Week: 6}
	now := time.Now().UTC()

	first := report("Acme",
		scorecard.WeekMetrics{Week: w5, Shipments: 10, Routes: 4, OTP: scorecard.PercentValue(90), OTD: scorecard.NoData(), Tracking: scorecard.PercentValue(100)},
	)
	require.NoError(t, st.SaveReport(ctx, "r1", first, now))

	// повторная генерация той же недели перезаписывает метрики
	second := report("ACME",
		scorecard.WeekMetrics{Week: w5, Shipments: 11, Routes: 4, OTP: scorecard.PercentValue(91), OTD: scorecard.PercentValue(99), Tracking: scorecard.NoData()},
		scorecard.WeekMetrics{Week: w6, Shipments: 3, Routes: 1, OTP: scorecard.NoData(), OTD: scorecard.NoData(), Tracking: scorecard.NoData()},
	)
	require.NoError(t, st.SaveReport(ctx, "r2", second, now.Add(time.Minute)))

	h, err := st.History(ctx, "acme", 10)
	require.NoError(t, err)
	require.Len(t, h, 2)
	require.Equal(t, w6, h[0].Metrics.Week)
	require.Equal(t, w5, h[1].Metrics.Week)
	require.Equal(t, 11, h[1].Metrics.Shipments)
	require.Equal(t, "r2", h[1].ReportID)
	require.False(t, h[1].Metrics.Tracking.Valid())

	got, err := st.GetReport(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Carrier)
	require.False(t, got.Scorecard.Weeks[0].OTD.Valid())

	_, err = st.GetReport(ctx, "missing")
	require.ErrorIs(t, err, ErrReportNotFound)

	require.Error(t, st.SaveReport(ctx, "r3", nil, now))
}
