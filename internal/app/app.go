package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RubachokBoss/student-portal/internal/config"
	"github.com/RubachokBoss/student-portal/internal/database"
	"github.com/RubachokBoss/student-portal/internal/delivery/httpd"
	"github.com/RubachokBoss/student-portal/internal/metrics"
	portalmw "github.com/RubachokBoss/student-portal/internal/middleware"
	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/repository"
	"github.com/RubachokBoss/student-portal/internal/service"
	"github.com/RubachokBoss/student-portal/internal/service/integration"
	"github.com/RubachokBoss/student-portal/internal/session"
	"github.com/RubachokBoss/student-portal/internal/worker"
	"github.com/RubachokBoss/student-portal/pkg/hash"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const bridgeBuffer = 16

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	server    *http.Server
	sessions  *session.Manager
	pool      *worker.WorkerPool
	acks      repository.AckRepository
	deliverer integration.InquiryDeliverer
	db        *sql.DB
	logger    zerolog.Logger
	config    *config.Config
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	checks := make(map[string]httpd.ReadinessCheck)

	acks, db, err := newAckRepository(cfg, log)
	if err != nil {
		return nil, err
	}
	if p, ok := acks.(pinger); ok {
		checks["ledger"] = p.Ping
	}

	transport, err := newTransport(cfg, log, checks)
	if err != nil {
		acks.Close()
		return nil, err
	}

	deliverer := newDeliverer(cfg, log)

	pool := worker.NewWorkerPool(cfg.Worker.Size, cfg.Worker.QueueSize, log)

	sessions := session.NewManager(session.Deps{
		Acks:          service.NewAckService(acks, m, log),
		Inquiries:     service.NewInquiryService(deliverer, m, log),
		Transport:     transport,
		Pool:          pool,
		ReaderEnabled: cfg.Reader.Enabled,
		BridgeBuffer:  bridgeBuffer,
		Metrics:       m,
		Logger:        log,
	}, cfg.Session.IdleTTL, log)

	resources := make([]models.Resource, len(cfg.Resources))
	for i, r := range cfg.Resources {
		resources[i] = models.Resource{Name: r.Name, Href: r.Href}
	}

	handler := httpd.NewHandler(sessions, resources, checks, cfg.Server.MaxUploadSize, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(portalmw.RequestLogger(log))
	router.Use(portalmw.Recovery(log))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(portalmw.NewCORS(cfg.CORS))

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		sessions:  sessions,
		pool:      pool,
		acks:      acks,
		deliverer: deliverer,
		db:        db,
		logger:    log,
		config:    cfg,
	}, nil
}

func newAckRepository(cfg *config.Config, log zerolog.Logger) (repository.AckRepository, *sql.DB, error) {
	switch cfg.Ledger.Backend {
	case "memory":
		return repository.NewMemoryAckRepository(), nil, nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout+time.Second)
		defer cancel()
		repo, err := repository.NewRedisAckRepository(ctx, repository.RedisOptions{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, cfg.Ledger.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect ledger to redis: %w", err)
		}
		log.Info().Str("backend", "redis").Msg("Acknowledgment ledger ready")
		return repo, nil, nil
	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info().Str("backend", "postgres").Msg("Acknowledgment ledger ready")
		return repository.NewPostgresAckRepository(db, log), db, nil
	default:
		repo, err := repository.NewBoltAckRepository(cfg.Ledger.BoltPath, cfg.Ledger.KeyPrefix, log)
		if err != nil {
			return nil, nil, err
		}
		return repo, nil, nil
	}
}

func newTransport(cfg *config.Config, log zerolog.Logger, checks map[string]httpd.ReadinessCheck) (service.Transport, error) {
	if cfg.Upload.Transport != "minio" {
		return service.NewSimulatedTransport(cfg.Upload.Steps, cfg.Upload.StepInterval), nil
	}

	hasher, err := hash.NewHasher(cfg.Upload.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	storage, err := repository.NewMinIOStorage(repository.MinIOOptions{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.BucketName,
		Region:    cfg.MinIO.Region,
		UseSSL:    cfg.MinIO.UseSSL,
		Timeout:   cfg.MinIO.Timeout,
	}, log)
	if err != nil {
		return nil, err
	}
	checks["storage"] = storage.Ping

	return service.NewStorageTransport(storage, hasher, service.StorageTransportConfig{
		RetryCount:  cfg.Upload.RetryCount,
		RetryDelay:  cfg.Upload.RetryDelay,
		FileTimeout: cfg.Upload.FileTimeout,
	}, log), nil
}

// newDeliverer falls back to logging when the configured broker is unreachable.
func newDeliverer(cfg *config.Config, log zerolog.Logger) integration.InquiryDeliverer {
	switch cfg.Inquiry.Transport {
	case "rabbitmq":
		d, err := integration.NewRabbitMQDeliverer(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.RoutingKey,
			cfg.RabbitMQ.QueueName,
			log,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create RabbitMQ client, inquiries will only be logged")
			return integration.NewLogDeliverer(log)
		}
		return d
	case "sendgrid":
		d, err := integration.NewSendGridDeliverer(integration.SendGridOptions{
			APIKey:    cfg.SendGrid.APIKey,
			FromName:  cfg.SendGrid.FromName,
			FromEmail: cfg.SendGrid.FromEmail,
			ToName:    cfg.SendGrid.ToName,
			ToEmail:   cfg.SendGrid.ToEmail,
		}, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create SendGrid client, inquiries will only be logged")
			return integration.NewLogDeliverer(log)
		}
		return d
	default:
		return integration.NewLogDeliverer(log)
	}
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP, runs the worker pool and sweeps idle sessions until ctx
// is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.pool.Start(ctx)

	g.Go(func() error {
		a.logger.Info().Msgf("Starting student portal on %s", a.config.Server.Address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.sessions.Run(ctx, a.config.Session.SweepInterval)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down student portal...")

	err := a.server.Shutdown(ctx)

	a.pool.Stop()

	if a.deliverer != nil {
		if cerr := a.deliverer.Close(); cerr != nil {
			a.logger.Error().Err(cerr).Msg("Failed to close inquiry deliverer")
		}
	}
	if a.acks != nil {
		if cerr := a.acks.Close(); cerr != nil {
			a.logger.Error().Err(cerr).Msg("Failed to close acknowledgment ledger")
		}
	}
	if a.db != nil {
		if cerr := a.db.Close(); cerr != nil {
			a.logger.Error().Err(cerr).Msg("Failed to close database connection")
		}
	}
	return err
}
