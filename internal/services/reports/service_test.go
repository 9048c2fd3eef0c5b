package reports

import (
	"testing"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestReportKey(t *testing.T) {
	require.Equal(t, "report:acme co:2024-W52,2025-W01",
		reportKey("Acme Co", []models.WeekKey{{Year: 2024, Week: 52}, {Year: 2025, Week: 1}}))
}

func TestErrorKind(t *testing.T) {
	require.Equal(t, "", ErrorKind(nil))
	require.Equal(t, KindNotFound, ErrorKind(errors.Wrap(scorecard.ErrCarrierNotFound, "x")))
	require.Equal(t, KindDataUnavailable, ErrorKind(scorecard.NewSourceError(errors.New("x"))))
	require.Equal(t, KindInvalid, ErrorKind(scorecard.ErrNoWeeks))
	require.Equal(t, KindInternal, ErrorKind(errors.Wrap(scorecard.ErrInvariantViolation, "x")))
}

func TestNew_Defaults(t *testing.T) {
	s := New(nil, nil, nil, nil, nil, Options{})
	require.Equal(t, 4, s.opts.ActiveWeeks)
	require.Equal(t, 5, s.opts.ActiveMinShipments)
	require.NotNil(t, s.log)
}
