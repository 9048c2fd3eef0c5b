package reports

import (
	"context"
	"encoding/json"

	"github.com/BearBump/ScoreBox/internal/broker/messages"
	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/BearBump/ScoreBox/internal/storage/pgreports"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Error kinds carried by report.generated.
const (
	KindNotFound        = "not_found"
	KindDataUnavailable = "data_unavailable"
	KindInvalid         = "invalid"
	KindInternal        = "internal"
)

// ErrorKind classifies a generation error for clients.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, scorecard.ErrCarrierNotFound), errors.Is(err, pgreports.ErrReportNotFound):
		return KindNotFound
	case errors.Is(err, scorecard.ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, scorecard.ErrNoWeeks):
		return KindInvalid
	default:
		return KindInternal
	}
}

// ParseRequest decodes and validates a report.requested payload.
func (s *Service) ParseRequest(value []byte) (messages.ReportRequested, []models.WeekKey, error) {
	var m messages.ReportRequested
	if err := json.Unmarshal(value, &m); err != nil {
		return m, nil, errors.Wrapf(ErrInvalidRequest, "decode: %v", err)
	}
	if err := validate.Struct(m); err != nil {
		return m, nil, errors.Wrapf(ErrInvalidRequest, "validate: %v", err)
	}
	weeks, err := models.ParseWeekKeys(m.Weeks, s.CurrentYear())
	if err != nil {
		return m, nil, errors.Wrapf(ErrInvalidRequest, "weeks: %v", err)
	}
	return m, weeks, nil
}

// HandleMessage serves one report.requested message. Request-level failures
// (bad payload, unknown carrier, source outage) are answered on
// report.generated; only publish failures are returned, so the message is
// not committed.
func (s *Service) HandleMessage(ctx context.Context, key, value []byte) error {
	m, weeks, err := s.ParseRequest(value)
	if err != nil {
		if m.RequestID == "" {
			m.RequestID = string(key)
		}
		s.log.Warn("bad report request", zap.String("request_id", m.RequestID), zap.Error(err))
		return s.publishResults(ctx, m, nil, err)
	}

	var gs []*Generated
	if models.IsAllCarriers(m.Carrier) {
		gs, err = s.GenerateAll(ctx, weeks)
	} else {
		var g *Generated
		g, err = s.Generate(ctx, m.Carrier, weeks)
		if g != nil {
			gs = []*Generated{g}
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.log.Warn("report request failed",
			zap.String("request_id", m.RequestID),
			zap.String("carrier", m.Carrier),
			zap.String("kind", ErrorKind(err)),
			zap.Error(err),
		)
	}
	return s.publishResults(ctx, m, gs, err)
}

// Announce publishes already generated reports on report.generated under
// requestID. It is a no-op without a publisher.
func (s *Service) Announce(ctx context.Context, requestID string, gs []*Generated) error {
	return s.publishResults(ctx, messages.ReportRequested{RequestID: requestID}, gs, nil)
}

func (s *Service) publishResults(ctx context.Context, m messages.ReportRequested, gs []*Generated, genErr error) error {
	if s.pub == nil || s.opts.GeneratedTopic == "" {
		return nil
	}
	if genErr != nil {
		msg := genErr.Error()
		return s.publish(ctx, messages.ReportGenerated{
			RequestID:   m.RequestID,
			Carrier:     m.Carrier,
			GeneratedAt: s.now(),
			Error:       &msg,
			ErrorKind:   ErrorKind(genErr),
		})
	}
	for _, g := range gs {
		if err := s.publish(ctx, messages.ReportGenerated{
			RequestID:   m.RequestID,
			ReportID:    g.ID,
			Carrier:     g.Report.Carrier,
			GeneratedAt: g.GeneratedAt,
			Weeks:       g.Report.Weeks,
			Scorecard:   g.Report.Scorecard,
			Delays:      g.Report.Delays,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, msg messages.ReportGenerated) error {
	if err := s.pub.PublishJSON(ctx, s.opts.GeneratedTopic, msg.RequestID, msg); err != nil {
		return errors.Wrap(err, "publish report generated")
	}
	return nil
}
