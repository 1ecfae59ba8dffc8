package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/krishi-gateway/internal/config"
	"github.com/godilite/krishi-gateway/internal/httpapi"
	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/metrics"
	"github.com/godilite/krishi-gateway/internal/repository"
	"github.com/godilite/krishi-gateway/internal/service"
	"github.com/godilite/krishi-gateway/internal/validation"
	"github.com/godilite/krishi-gateway/pkg/cache"
	dbbuilder "github.com/godilite/krishi-gateway/pkg/database"
	grpcsrv "github.com/godilite/krishi-gateway/pkg/grpc/server"
)

const shutdownTimeout = 10 * time.Second

type cacheCloser interface {
	httpapi.Cacher
	Close() error
}

type App struct {
	logger      *zap.Logger
	dbPool      *sql.DB
	cache       cacheCloser
	httpServer  *http.Server
	httpLis     net.Listener
	grpcServer  *grpcsrv.Server
	shutdownTTL time.Duration
}

// OpenStore opens the configured database and applies the schema. The
// migrate and stats commands use it without starting any listener.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	if !dbbuilder.IsInMemory(cfg.DBPath) {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(dbbuilder.SQLiteDSN(cfg.DBDriver, cfg.DBPath)),
		dbbuilder.WithInitStatements(dbbuilder.SQLitePragmas...),
		dbbuilder.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database ready", zap.String("driver", cfg.DBDriver), zap.String("path", cfg.DBPath))
	return db, nil
}

// NewFeedbackService builds the feedback service over an open store.
func NewFeedbackService(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*service.FeedbackService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return service.NewFeedbackService(
		repository.NewFeedbackRepository(db),
		repository.NewFarmerRepository(db),
		validation.New(),
		logger,
		service.WithAnalyticsLocation(loc),
	), nil
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbPool, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var cacheClient cacheCloser = cache.Noop{}
	if cfg.CacheEnabled {
		redisCache, err := cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
		if err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacheClient = redisCache
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Cache disabled")
	}

	m := metrics.New()
	client := inference.NewClient(inference.Config{
		CropURL:    cfg.InferenceCropURL,
		DiseaseURL: cfg.InferenceDiseaseURL,
		Timeout:    cfg.InferenceTimeout,
	}, inference.WithLogger(logger), inference.WithRecorder(m))

	v := validation.New()
	farmerRepo := repository.NewFarmerRepository(dbPool)
	feedbackService, err := NewFeedbackService(cfg, dbPool, logger)
	if err != nil {
		dbPool.Close()
		_ = cacheClient.Close()
		return nil, err
	}

	handlers := httpapi.NewHandlers(httpapi.Deps{
		Farmers:  service.NewFarmerService(farmerRepo, v, logger),
		Feedback: feedbackService,
		Crops:    service.NewCropService(client, v, logger),
		Disease:  service.NewDiseaseService(client, logger),
		Store:    dbPool,
		Cache:    cacheClient,
	}, logger, cfg.DashboardCacheTTL)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(handlers,
		httpapi.WithBasePath(cfg.APIBasePath),
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(m, m.Handler()))

	httpLis, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)))
	if err != nil {
		dbPool.Close()
		_ = cacheClient.Close()
		return nil, fmt.Errorf("listen HTTP on port %d: %w", cfg.HTTPPort, err)
	}

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithServices(grpcsrv.ServiceName),
	)
	if err != nil {
		httpLis.Close()
		dbPool.Close()
		_ = cacheClient.Close()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	return &App{
		logger:  logger,
		dbPool:  dbPool,
		cache:   cacheClient,
		httpLis: httpLis,
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcServer:  grpcServer,
		shutdownTTL: shutdownTimeout,
	}, nil
}

// HTTPAddr is the address the REST API listens on.
func (a *App) HTTPAddr() net.Addr { return a.httpLis.Addr() }

// GRPCAddr is the address the health service listens on.
func (a *App) GRPCAddr() net.Addr { return a.grpcServer.Addr() }

// Run serves HTTP and gRPC until ctx is cancelled, then drains both and
// releases the store and cache.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting",
		zap.String("http_addr", a.HTTPAddr().String()),
		zap.String("grpc_addr", a.GRPCAddr().String()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpServer.Serve(a.httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(a.grpcServer.Serve)

	a.grpcServer.MarkServing()

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("application shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTTL)
		defer cancel()

		var errs []error
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown HTTP: %w", err))
		}
		if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown gRPC: %w", err))
		}
		return errors.Join(errs...)
	})

	runErr := g.Wait()

	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("graceful shutdown completed successfully")
	return nil
}
