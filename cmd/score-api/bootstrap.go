package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ScoreBox/config"
	reportsapi "github.com/BearBump/ScoreBox/internal/api/reports_api"
	"github.com/BearBump/ScoreBox/internal/broker/kafka"
	"github.com/BearBump/ScoreBox/internal/cache"
	"github.com/BearBump/ScoreBox/internal/cache/rediscache"
	"github.com/BearBump/ScoreBox/internal/logger"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/BearBump/ScoreBox/internal/services/reports"
	"github.com/BearBump/ScoreBox/internal/storage/mysqlotp"
	"github.com/BearBump/ScoreBox/internal/storage/pgreports"
	"go.uber.org/zap"
)

var defaultSince = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type scoreAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     scoreAPIOpts
	log      *zap.Logger
	svc      *reports.Service
	api      *reportsapi.ReportsAPI
	consumer *kafka.Consumer
	closers  []func()
}

func mustBootstrapScoreAPI() *scoreAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	log, err := logger.New(cfg.ScoreBox.LogLevel, "json")
	if err != nil {
		panic(err)
	}
	app := &scoreAPIApp{log: log}

	httpAddr := cfg.ScoreBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.ScoreBox.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "score-api"
	}
	requestedTopic := cfg.Kafka.ReportRequestedTopicName
	if requestedTopic == "" {
		requestedTopic = "report.requested"
	}
	generatedTopic := cfg.Kafka.ReportGeneratedTopicName
	if generatedTopic == "" {
		generatedTopic = "report.generated"
	}
	reportTTL := time.Duration(cfg.ScoreBox.ReportCacheTTLSeconds) * time.Second
	if reportTTL <= 0 {
		reportTTL = 30 * time.Minute
	}
	carriersTTL := time.Duration(cfg.ScoreBox.CarriersCacheTTLSeconds) * time.Second
	if carriersTTL <= 0 {
		carriersTTL = time.Hour
	}

	src := mustOpenMySQLWithRetry(cfg.Source, 60*time.Second)
	app.closers = append(app.closers, func() { _ = src.Close() })

	// архив в Postgres опционален
	var archive reports.Archive
	if conn := cfg.Database.ConnString(); conn != "" {
		st := mustOpenPostgresWithRetry(conn, 60*time.Second)
		app.closers = append(app.closers, st.Close)
		archive = st
	}

	var (
		bc      cache.BytesCache
		limiter cache.Limiter
	)
	if addr := cfg.Redis.Addr(); addr != "" {
		rc := rediscache.New(addr)
		rl := rediscache.NewRateLimiter(addr)
		app.closers = append(app.closers, func() { _ = rc.Close() }, func() { _ = rl.Close() })
		bc, limiter = rc, rl
	}

	var pub reports.Publisher
	if brokers := cfg.Kafka.Brokers(); len(brokers) > 0 {
		producer := kafka.NewProducer(brokers)
		app.closers = append(app.closers, func() { _ = producer.Close() })
		pub = producer
		app.consumer = kafka.NewConsumer(brokers, requestedTopic, consumerGroup).WithLogger(log)
	}

	app.svc = reports.New(src, archive, bc, pub, log, reports.Options{
		Since:          cfg.ScoreBox.Since(defaultSince),
		ReportTTL:      reportTTL,
		CarriersTTL:    carriersTTL,
		GeneratedTopic: generatedTopic,

		ActiveWeeks:        cfg.ScoreBox.ActiveCarrierWeeks,
		ActiveMinShipments: cfg.ScoreBox.ActiveCarrierMinShipments,
	})
	app.api = reportsapi.New(app.svc, limiter, log, reportsapi.Options{
		PasswordHash:       cfg.ScoreBox.PasswordHash,
		RateLimitPerMinute: cfg.ScoreBox.RateLimitPerMinute,
		Targets:            targets(cfg.ScoreBox.Targets),
	})

	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.opts = scoreAPIOpts{
		httpAddr:      httpAddr,
		topic:         requestedTopic,
		consumerGroup: consumerGroup,
	}
	return app
}

func targets(c config.TargetsConfig) scorecard.Targets {
	return scorecard.Targets{OTP: c.OTP, OTD: c.OTD, Tracking: c.Tracking}.OrDefault()
}

func mustOpenMySQLWithRetry(c config.SourceConfig, wait time.Duration) *mysqlotp.Storage {
	dsn := mysqlotp.DSN(mysqlotp.Options{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.Username,
		Password: c.Password,
		DBName:   c.DBName,
	})
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := mysqlotp.New(dsn, c.Table)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("mysql is not ready after %s: %v", wait, lastErr))
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgreports.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgreports.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *scoreAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

func (a *scoreAPIApp) Run() error {
	var consumer kafkaConsumer
	if a.consumer != nil {
		consumer = a.consumer
	}
	return runScoreAPI(a.ctx, a.opts, a.api.Routes(), a.svc, consumer, a.log)
}
