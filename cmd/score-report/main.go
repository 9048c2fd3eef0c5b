package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BearBump/ScoreBox/config"
	"github.com/BearBump/ScoreBox/internal/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		cfgPath = flag.String("config", os.Getenv("configPath"), "path to YAML config")
		carrier = flag.String("carrier", "", "carrier name or ALL_CARRIERS")
		weeks   = flag.String("weeks", "", "comma separated weeks, e.g. 2025-W05,2025-W06; empty means previous and current week")
		outDir  = flag.String("out", "", "output directory for workbooks")
		archive = flag.Bool("archive", false, "save scorecards to the Postgres archive")
		publish = flag.Bool("publish", false, "publish results to report.generated")
	)
	flag.Parse()

	if *cfgPath == "" {
		panic("-config or configPath env var is required")
	}
	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	log, err := logger.New(cfg.ScoreBox.LogLevel, "console")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	job := reportJob{
		carrier: *carrier,
		weeks:   splitWeeks(*weeks),
		outDir:  *outDir,
		archive: *archive,
		publish: *publish,
	}
	paths, err := RunScoreReport(ctx, cfg, job, defaultReportFactories(), log)
	if err != nil {
		log.Error("report failed", zap.Error(err))
		cancel()
		_ = log.Sync()
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}

func splitWeeks(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
