package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/showsewa/seat-inventory/internal/cache"
	"github.com/showsewa/seat-inventory/internal/clock"
	"github.com/showsewa/seat-inventory/internal/domain"
	"github.com/showsewa/seat-inventory/internal/inventory"
	"github.com/showsewa/seat-inventory/internal/queue"
	"github.com/showsewa/seat-inventory/internal/repository"
	appvalidator "github.com/showsewa/seat-inventory/internal/validator"
	"github.com/showsewa/seat-inventory/internal/vcs"
	"github.com/showsewa/seat-inventory/migrations"
)

var (
	version = vcs.Version()
)

type application struct {
	config    config
	logger    *slog.Logger
	db        *pgxpool.Pool
	redis     redis.UniversalClient
	validator *validator.Validate

	ledgerRepo   domain.LedgerRepository
	bookingRepo  domain.BookingRepository
	configRepo   domain.ChannelConfigRepository
	conflictRepo domain.ConflictRepository
	configCache  *cache.ChannelConfigCache

	holds      *inventory.HoldManager
	confirms   *inventory.ConfirmationService
	gateway    *inventory.ChannelGateway
	reaper     *inventory.Reaper
	reconciler *inventory.Reconciler
	consumer   *queue.Consumer
}

type config struct {
	port int
	env  string
	db   struct {
		dsn          string
		maxOpenConns int
		maxIdleTime  time.Duration
		automigrate  bool
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	amqp struct {
		url string
	}
	reaper struct {
		interval time.Duration
	}
	otelCollectorUrl string
}

func Run() error {
	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")
	flag.BoolVar(&cfg.db.automigrate, "db-automigrate", true, "Apply pending database migrations on startup")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.amqp.url, "amqp-url", "", "AMQP broker URL for channel reports (disabled when empty)")

	flag.DurationVar(&cfg.reaper.interval, "reaper-interval", inventory.DefaultReapInterval, "Expiry reaper scan interval")

	flag.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	validator := appvalidator.NewValidator()

	db, err := newDatabasePool(cfg)
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		return err
	}
	defer db.Close()

	if cfg.db.automigrate {
		err := applyMigrations(cfg.db.dsn)
		if err != nil {
			logger.Error("failed to apply migrations", "error", err)
			return err
		}
	}

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerRepo := repository.NewPostgresLedgerRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	configRepo := repository.NewPostgresChannelConfigRepository(db)
	conflictRepo := repository.NewPostgresConflictRepository(db)

	// The cache and lease take the client as an interface; hand them a plain
	// nil when Redis is not configured so their nil checks hold.
	var redisConn redis.UniversalClient
	if redisClient != nil {
		redisConn = redisClient
	}

	configCache := cache.NewChannelConfigCache(configRepo, redisConn, logger)

	clk := clock.System{}
	lease := inventory.NewLease(redisConn, 30*time.Second)

	holds := inventory.NewHoldManager(ledgerRepo, clk)
	confirms := inventory.NewConfirmationService(ledgerRepo, bookingRepo, clk)
	gateway := inventory.NewChannelGateway(ledgerRepo, bookingRepo, configCache, holds, confirms, clk, logger)
	reaper := inventory.NewReaper(ledgerRepo, clk, lease, cfg.reaper.interval, logger)
	reconciler := inventory.NewReconciler(ledgerRepo, bookingRepo, configRepo, conflictRepo, clk, lease, logger)

	app := &application{
		config:       cfg,
		logger:       logger,
		db:           db,
		redis:        redisConn,
		validator:    validator,
		ledgerRepo:   ledgerRepo,
		bookingRepo:  bookingRepo,
		configRepo:   configRepo,
		conflictRepo: conflictRepo,
		configCache:  configCache,
		holds:        holds,
		confirms:     confirms,
		gateway:      gateway,
		reaper:       reaper,
		reconciler:   reconciler,
	}

	if cfg.amqp.url != "" {
		app.consumer = queue.NewConsumer(cfg.amqp.url, gateway, logger)
	}

	shutdownTelemetry, err := app.initTelemetry()
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.run()
}

func newRedisClient(cfg config) (*redis.Client, error) {
	if cfg.redis.url == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func applyMigrations(dsn string) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return err
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func (app *application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	go app.reaper.Run(workerCtx)
	go app.reconciler.Run(workerCtx)

	if app.consumer != nil {
		go app.consumer.Run(workerCtx)
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		stopWorkers()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
