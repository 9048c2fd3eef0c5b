package refresher

import (
	"context"
	"errors"
	"testing"
	"time"

	cachemocks "github.com/BearBump/ScoreBox/internal/cache/mocks"
	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/BearBump/ScoreBox/internal/services/reports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	refreshermocks "github.com/BearBump/ScoreBox/internal/services/refresher/mocks"
)

var (
	now   = time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	weeks = []models.WeekKey{{Year: 2025, Week: 1}, {Year: 2025, Week: 2}}
)

func generated(id, carrier string) *reports.Generated {
	return &reports.Generated{ID: id, Report: &scorecard.Report{Carrier: carrier}}
}

type RefresherSuite struct {
	suite.Suite

	svc *refreshermocks.MockReports
	rl  *cachemocks.MockLimiter
	r   *Refresher
	at  time.Time
}

func (s *RefresherSuite) SetupTest() {
	s.svc = &refreshermocks.MockReports{}
	s.rl = &cachemocks.MockLimiter{}
	s.at = now
	s.r = New(s.svc, s.rl, nil).WithSettings(time.Hour, 2, 10)
	s.r.now = func() time.Time { return s.at }
	s.svc.On("DefaultWeeks").Return(weeks)
}

func (s *RefresherSuite) TestRunOnce_RegeneratesAndAnnounces() {
	s.svc.On("ActiveCarriers", mock.Anything).
		Return([]models.CarrierActivity{{Name: "Acme", Shipments: 9}, {Name: "Beta", Shipments: 6}}, nil).Once()
	s.rl.On("Allow", mock.Anything, "refresh:202501081200", int64(10), 70*time.Second).Return(true, int64(1), nil)
	s.svc.On("Regenerate", mock.Anything, "Acme", weeks).Return(generated("r1", "Acme"), nil).Once()
	s.svc.On("Regenerate", mock.Anything, "Beta", weeks).Return(generated("r2", "Beta"), nil).Once()
	s.svc.On("Announce", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(gs []*reports.Generated) bool {
		return len(gs) == 2
	})).Return(nil).Once()

	s.r.runOnce(context.Background())

	st := s.r.Stats()
	s.Equal(int64(2), st.TotalRefreshed)
	s.Zero(st.TotalErrors)
	s.NotNil(st.LastCycleAt)
	s.svc.AssertExpectations(s.T())
}

func (s *RefresherSuite) TestRunOnce_FailureBacksOff() {
	s.svc.On("ActiveCarriers", mock.Anything).Return([]models.CarrierActivity{{Name: "Acme"}}, nil)
	s.rl.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, int64(1), nil)
	s.svc.On("Regenerate", mock.Anything, "Acme", weeks).
		Return(nil, scorecard.NewSourceError(errors.New("mysql down"))).Once()

	s.r.runOnce(context.Background())
	st := s.r.Stats()
	s.Equal(int64(1), st.TotalErrors)
	s.Equal(1, st.BackingOff)
	s.Contains(st.LastError, "mysql down")

	// within the backoff window the carrier is skipped
	s.at = now.Add(time.Minute)
	s.r.runOnce(context.Background())
	s.Equal(int64(1), s.r.Stats().TotalSkipped)

	// after it the carrier is retried and the failure is cleared
	s.at = now.Add(6 * time.Minute)
	s.svc.On("Regenerate", mock.Anything, "Acme", weeks).Return(generated("r1", "Acme"), nil).Once()
	s.svc.On("Announce", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	s.r.runOnce(context.Background())
	st = s.r.Stats()
	s.Equal(int64(1), st.TotalRefreshed)
	s.Zero(st.BackingOff)
	s.svc.AssertNumberOfCalls(s.T(), "Regenerate", 2)
}

func (s *RefresherSuite) TestRunOnce_RateLimitedIsSkipped() {
	s.svc.On("ActiveCarriers", mock.Anything).Return([]models.CarrierActivity{{Name: "Acme"}}, nil).Once()
	s.rl.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, int64(11), nil).Once()

	s.r.runOnce(context.Background())

	st := s.r.Stats()
	s.Equal(int64(1), st.TotalSkipped)
	s.Zero(st.TotalErrors)
	s.Zero(st.BackingOff)
	s.svc.AssertNotCalled(s.T(), "Regenerate", mock.Anything, mock.Anything, mock.Anything)
	s.svc.AssertNotCalled(s.T(), "Announce", mock.Anything, mock.Anything, mock.Anything)
}

func (s *RefresherSuite) TestRunOnce_ActiveCarriersError() {
	s.svc.On("ActiveCarriers", mock.Anything).Return(nil, errors.New("boom")).Once()

	s.r.runOnce(context.Background())
	s.Equal("boom", s.r.Stats().LastError)
	s.svc.AssertNotCalled(s.T(), "DefaultWeeks")
}

func TestRefresherSuite(t *testing.T) {
	suite.Run(t, new(RefresherSuite))
}

type noopReports struct {
	calls chan struct{}
}

func (n noopReports) ActiveCarriers(ctx context.Context) ([]models.CarrierActivity, error) {
	select {
	case n.calls <- struct{}{}:
	default:
	}
	return nil, nil
}
func (noopReports) Regenerate(ctx context.Context, carrier string, weeks []models.WeekKey) (*reports.Generated, error) {
	return nil, nil
}
func (noopReports) DefaultWeeks() []models.WeekKey { return nil }
func (noopReports) Announce(ctx context.Context, requestID string, gs []*reports.Generated) error {
	return nil
}

func TestRefresher_Run_TriggerAndCancel(t *testing.T) {
	calls := make(chan struct{}, 4)
	r := New(noopReports{calls: calls}, nil, nil).WithSettings(time.Hour, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	<-calls // initial cycle
	r.Trigger()
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("trigger did not start a cycle")
	}
	require.NotNil(t, r.Stats().LastTriggerAt)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestRefresher_WithSettings(t *testing.T) {
	r := New(noopReports{}, nil, nil).WithSettings(5*time.Second, 7, 13)
	require.Equal(t, 5*time.Second, r.interval)
	require.Equal(t, 7, r.concurrency)
	require.Equal(t, int64(13), r.rateLimitPerMinute)

	r.WithSettings(0, 0, 0)
	require.Equal(t, 5*time.Second, r.interval)
}
