package main

import (
	"context"
	"time"

	"github.com/BearBump/ScoreBox/config"
	"github.com/BearBump/ScoreBox/internal/broker/kafka"
	"github.com/BearBump/ScoreBox/internal/cache"
	"github.com/BearBump/ScoreBox/internal/cache/rediscache"
	"github.com/BearBump/ScoreBox/internal/services/refresher"
	"github.com/BearBump/ScoreBox/internal/services/reports"
	"github.com/BearBump/ScoreBox/internal/storage/mysqlotp"
	"github.com/BearBump/ScoreBox/internal/storage/pgreports"
	"go.uber.org/zap"
)

var defaultSince = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type workerFactories struct {
	newSource    func(cfg *config.Config) (src reports.Source, closeFn func(), err error)
	newArchive   func(cfg *config.Config) (archive reports.Archive, closeFn func(), err error)
	newCache     func(cfg *config.Config) (bc cache.BytesCache, rl cache.Limiter, closeFn func())
	newPublisher func(cfg *config.Config) (pub reports.Publisher, closeFn func())
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
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
				return nil, nil, nil
			}
			st, err := pgreports.New(conn)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, cache.Limiter, func()) {
			addr := cfg.Redis.Addr()
			if addr == "" {
				return nil, nil, nil
			}
			rc := rediscache.New(addr)
			rl := rediscache.NewRateLimiter(addr)
			return rc, rl, func() {
				_ = rc.Close()
				_ = rl.Close()
			}
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

func RunScoreWorker(ctx context.Context, cfg *config.Config, f workerFactories, log *zap.Logger) error {
	generatedTopic := cfg.Kafka.ReportGeneratedTopicName
	if generatedTopic == "" {
		generatedTopic = "report.generated"
	}
	interval := time.Duration(cfg.ScoreBox.RefreshIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	concurrency := cfg.ScoreBox.RefreshConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	rlPerMin := int64(cfg.ScoreBox.RefreshRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 30
	}
	reportTTL := time.Duration(cfg.ScoreBox.ReportCacheTTLSeconds) * time.Second
	if reportTTL <= 0 {
		reportTTL = 30 * time.Minute
	}

	src, closeSrc, err := f.newSource(cfg)
	if err != nil {
		return err
	}
	if closeSrc != nil {
		defer closeSrc()
	}
	archive, closeArchive, err := f.newArchive(cfg)
	if err != nil {
		return err
	}
	if closeArchive != nil {
		defer closeArchive()
	}
	bc, rl, closeCache := f.newCache(cfg)
	if closeCache != nil {
		defer closeCache()
	}
	pub, closePub := f.newPublisher(cfg)
	if closePub != nil {
		defer closePub()
	}

	svc := reports.New(src, archive, bc, pub, log, reports.Options{
		Since:          cfg.ScoreBox.Since(defaultSince),
		ReportTTL:      reportTTL,
		GeneratedTopic: generatedTopic,

		ActiveWeeks:        cfg.ScoreBox.ActiveCarrierWeeks,
		ActiveMinShipments: cfg.ScoreBox.ActiveCarrierMinShipments,
	})

	r := refresher.New(svc, rl, log).WithSettings(interval, concurrency, rlPerMin)
	if s := cfg.ScoreBox.RefreshBackoffMaxSeconds; s > 0 {
		r.WithBackoff(refresher.BackoffConfig{Step4: time.Duration(s) * time.Second})
	}

	if cfg.ScoreBox.WorkerHTTPAddr != "" {
		go func() {
			err := runWorkerHTTPServer(ctx, workerHTTPOpts{
				httpAddr:  cfg.ScoreBox.WorkerHTTPAddr,
				refresher: r,
				cfg:       cfg,
				log:       log,
			})
			if err != nil {
				log.Error("worker http server stopped", zap.Error(err))
			}
		}()
	}

	log.Info("refresher started", zap.Duration("interval", interval), zap.Int("concurrency", concurrency))
	return r.Run(ctx)
}
