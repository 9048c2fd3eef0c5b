package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type scoreAPIOpts struct {
	httpAddr string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

type messageHandler interface {
	HandleMessage(ctx context.Context, key, value []byte) error
}

// runScoreAPI serves HTTP and, when a consumer is given, report requests from Kafka.
func runScoreAPI(ctx context.Context, opts scoreAPIOpts, handler http.Handler, requests messageHandler, consumer kafkaConsumer, log *zap.Logger) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, handler, log)
	}()

	if consumer != nil && requests != nil {
		go func() {
			log.Info("kafka consumer started", zap.String("topic", opts.topic), zap.String("group", opts.consumerGroup))
			err := consumer.Consume(ctx, func(key, value []byte) error {
				return requests.HandleMessage(ctx, key, value)
			})
			if err != nil && ctx.Err() == nil {
				log.Error("kafka consumer stopped", zap.Error(err))
			}
		}()
	}

	select {
	case <-ctx.Done():
		<-httpErr
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

func runHTTPServer(ctx context.Context, lis net.Listener, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("HTTP server listening", zap.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
