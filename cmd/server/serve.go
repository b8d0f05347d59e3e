package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"healthcare-portal-api/internal/auth"
	"healthcare-portal-api/internal/config"
	"healthcare-portal-api/internal/events"
	"healthcare-portal-api/internal/gateway"
	"healthcare-portal-api/internal/handler"
	"healthcare-portal-api/internal/logger"
	"healthcare-portal-api/internal/metrics"
	"healthcare-portal-api/internal/middleware"
	"healthcare-portal-api/internal/rpc"
	"healthcare-portal-api/internal/scheduler"
	"healthcare-portal-api/internal/store"
	"healthcare-portal-api/internal/tracer"
)

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	// database
	pool, err := store.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to postgres")

	st := store.New(pool)
	applied, err := st.Migrate(ctx, cfg.Database.MigrationsDir)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		log.Info("migrations applied", zap.Strings("files", applied))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector("portal", reg)

	var pub events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled() {
		pub = events.NewKafka(cfg.Kafka)
		log.Info("publishing appointment events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer pub.Close()

	sched := scheduler.New(scheduler.PGStore(st), cfg.Scheduler.Location, pub, m, log)
	tokens := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL)
	h := handler.New(sched, st, tokens, handler.Options{
		RefreshTTL:  cfg.JWT.RefreshTTL,
		StaffSecret: cfg.Auth.StaffSecret,
	}, log)

	// grpc server
	rl := middleware.NewRateLimiter(ctx, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.Logging(log.Named("grpc"), m),
			middleware.RateLimit(rl),
			middleware.Auth(tokens),
		),
	)
	rpc.RegisterScheduleServiceServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gw := gateway.New(gateway.Options{
		Service:  h,
		Tokens:   tokens,
		Limiter:  rl,
		Metrics:  m,
		Gatherer: reg,
		Ready:    st.Ping,
		Logger:   log,
	})
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Server.HTTPPort,
		Handler: gw.Router(),
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		log.Info("http listening", zap.String("addr", httpSrv.Addr), zap.String("timezone", cfg.Scheduler.Location.String()))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server failed", zap.Error(err))
		stop()
	}

	// graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		srv.Stop()
	}
	return nil
}
