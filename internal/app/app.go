package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/product-catalog/internal/domain/product"
	"github.com/xenking/product-catalog/internal/handler"
	"github.com/xenking/product-catalog/internal/storage/memory"
	"github.com/xenking/product-catalog/internal/storage/postgres"
	"github.com/xenking/product-catalog/pkg/health"
	"github.com/xenking/product-catalog/pkg/httpmiddleware"
)

const serviceName = "product-catalog"

// Store is a product repository the health probes can ping.
type Store interface {
	product.Repository
	health.Pinger
}

// OpenStore constructs the product store selected by cfg. The returned close
// function releases its resources.
func OpenStore(ctx context.Context, cfg StorageConfig, tp trace.TracerProvider) (Store, func(), error) {
	switch cfg.Driver {
	case DriverMemory:
		return memory.NewProductRepository(), func() {}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			URL:            cfg.DatabaseURL,
			MaxConns:       cfg.MaxConns,
			TracerProvider: tp,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewProductRepository(pool), pool.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Routes mounts the health endpoints and the product API on a new mux.
func Routes(h *handler.Handler, hs *health.Health) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", hs.LiveEndpoint)
	mux.HandleFunc("GET /readyz", hs.ReadyEndpoint)
	h.Register(mux)
	return mux
}

// NewServer returns an http.Server for h. Request contexts carry lg and every
// value of ctx but are not cancelled with it, so in-flight requests finish
// during graceful shutdown.
func NewServer(ctx context.Context, lg *zap.Logger, addr string, h http.Handler) *http.Server {
	baseCtx := context.WithoutCancel(zctx.Base(ctx, lg))
	return &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              addr,
		Handler:           h,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, closeStore, err := OpenStore(ctx, cfg.Storage, m.TracerProvider())
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer closeStore()

	healthSvc := health.New()
	healthSvc.AddReadinessCheck(health.Check{
		Name:    cfg.Storage.Driver,
		Timeout: 5 * time.Second,
		Func:    health.PingCheck(store),
	})
	healthSvc.AddLivenessCheck(health.Check{
		Name: "goroutines",
		Func: health.GoroutineCountCheck(10000),
	})
	healthSvc.Start(zctx.Base(ctx, lg), 10*time.Second)
	defer healthSvc.Stop()

	products := product.NewService(store)
	h := handler.NewHandler(handler.HandlerConfig{DefaultPageSize: cfg.DefaultPageSize}, products)
	mux := Routes(h, healthSvc)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	instrument, err := httpmiddleware.Instrument(serviceName, routeFinder, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "instrument")
	}
	server := NewServer(ctx, lg, cfg.Addr,
		httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				ExposeHeaders:    []string{"Location", httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			instrument,
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	)

	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}
