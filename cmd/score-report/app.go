package main

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/ScoreBox/config"
	"github.com/BearBump/ScoreBox/internal/broker/kafka"
	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/render/xlsxreport"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/BearBump/ScoreBox/internal/services/reports"
	"github.com/BearBump/ScoreBox/internal/storage/mysqlotp"
	"github.com/BearBump/ScoreBox/internal/storage/pgreports"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var defaultSince = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type reportJob struct {
	carrier string
	weeks   []string
	outDir  string

	archive bool
	publish bool
}

type reportFactories struct {
	newSource    func(cfg *config.Config) (src reports.Source, closeFn func(), err error)
	newArchive   func(cfg *config.Config) (archive reports.Archive, closeFn func(), err error)
	newPublisher func(cfg *config.Config) (pub reports.Publisher, closeFn func())
}

func defaultReportFactories() reportFactories {
	return reportFactories{
		newSource: func(cfg *config.Config) (reports.Source, func(), error) {
			st, err := mysqlotp.New(mysqlotp.DSN(mysqlotp.Options{
				Host:     cfg.Source.Host,
				Port:     cfg.Source.Port,
				User:     cfg.Source.Username,
				Password: cfg.Source.Password,
				DBName:   cfg.Source.DBName,
			}), cfg.Source.Table)
			if err != nil {
				return nil, nil, err
			}
			return st, func() { _ = st.Close() }, nil
		},
		newArchive: func(cfg *config.Config) (reports.Archive, func(), error) {
			conn := cfg.Database.ConnString()
			if conn == "" {
				return nil, nil, errors.New("database section is required for -archive")
			}
			st, err := pgreports.New(conn)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newPublisher: func(cfg *config.Config) (reports.Publisher, func()) {
			brokers := cfg.Kafka.Brokers()
			if len(brokers) == 0 {
				return nil, nil
			}
			p := kafka.NewProducer(brokers)
			return p, func() { _ = p.Close() }
		},
	}
}

// RunScoreReport builds the job's reports and writes one workbook per carrier.
// It returns the written file paths.
func RunScoreReport(ctx context.Context, cfg *config.Config, job reportJob, f reportFactories, log *zap.Logger) ([]string, error) {
	if strings.TrimSpace(job.carrier) == "" {
		return nil, errors.Wrap(reports.ErrInvalidRequest, "carrier is required")
	}
	outDir := job.outDir
	if outDir == "" {
		outDir = cfg.ScoreBox.OutputDir
	}
	if outDir == "" {
		outDir = "."
	}
	topic := cfg.Kafka.ReportGeneratedTopicName
	if topic == "" {
		topic = "report.generated"
	}

	src, closeSrc, err := f.newSource(cfg)
	if err != nil {
		return nil, err
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	var archive reports.Archive
	if job.archive {
		a, closeFn, err := f.newArchive(cfg)
		if err != nil {
			return nil, err
		}
		if closeFn != nil {
			defer closeFn()
		}
		archive = a
	}

	var pub reports.Publisher
	if job.publish {
		p, closeFn := f.newPublisher(cfg)
		if p == nil {
			return nil, errors.New("kafka section is required for -publish")
		}
		if closeFn != nil {
			defer closeFn()
		}
		pub = p
	}

	svc := reports.New(src, archive, nil, pub, log, reports.Options{
		Since:          cfg.ScoreBox.Since(defaultSince),
		GeneratedTopic: topic,
	})

	weeks, err := models.ParseWeekKeys(job.weeks, svc.CurrentYear())
	if err != nil {
		return nil, errors.Wrapf(reports.ErrInvalidRequest, "%v", err)
	}

	var gs []*reports.Generated
	if models.IsAllCarriers(job.carrier) {
		gs, err = svc.GenerateAll(ctx, weeks)
	} else {
		var g *reports.Generated
		g, err = svc.Generate(ctx, job.carrier, weeks)
		gs = []*reports.Generated{g}
	}
	if err != nil {
		return nil, err
	}

	tg := targets(cfg.ScoreBox.Targets)
	paths := make([]string, 0, len(gs))
	for _, g := range gs {
		path, err := xlsxreport.SaveFile(outDir, g.Report, tg)
		if err != nil {
			return paths, err
		}
		log.Info("report written",
			zap.String("carrier", g.Report.Carrier),
			zap.String("report_id", g.ID),
			zap.String("path", path),
		)
		paths = append(paths, path)
	}

	if pub != nil {
		if err := svc.Announce(ctx, "batch-"+uuid.NewString(), gs); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func targets(c config.TargetsConfig) scorecard.Targets {
	return scorecard.Targets{OTP: c.OTP, OTD: c.OTD, Tracking: c.Tracking}.OrDefault()
}
