package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bookpay-be/internal/booking"
	"bookpay-be/internal/checkout"
	"bookpay-be/internal/config"
	"bookpay-be/internal/db"
	"bookpay-be/internal/logger"
	"bookpay-be/internal/metrics"
	"bookpay-be/internal/middleware"
	"bookpay-be/internal/payment"
	"bookpay-be/internal/tracing"
	"bookpay-be/internal/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

type server struct {
	handler http.Handler
	store   *checkout.Store
	limiter *middleware.RateLimiter
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	shutdownTracing, err := tracing.Init(cfg.AppEnv, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.L().Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	go srv.store.Run(ctx)
	go srv.limiter.Run(ctx)

	logger.L().Info("Payment server running", zap.String("port", cfg.AppPort))
	return startServerFunc(":"+cfg.AppPort, srv.handler)
}

// newServer wires every dependency and returns the wrapped router.
func newServer(cfg *config.Config, database *sql.DB) (*server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gateway := payment.NewPayMongoGateway(payment.PayMongoConfig{
		SecretKey: cfg.PayMongoSecretKey,
		BaseURL:   cfg.PayMongoBaseURL,
		ReturnURL: cfg.PaymentReturnURL,
		Timeout:   cfg.GatewayTimeout,
	})
	bookings := booking.NewRepository(database)
	ledger := payment.NewRepository(database)

	store := checkout.NewStore(checkout.Deps{
		Client:    gateway,
		Verifier:  gateway,
		Capture:   checkout.NewCaptureProvider(cfg.PayMongoPublicKey),
		Navigator: transport.Navigator{},
		Ledger:    ledger,
		Metrics:   metrics.NewCheckout(reg),
		Callbacks: checkout.Callbacks{
			OnSuccess: func(ctx context.Context, bookingID string, res payment.Result) {
				logger.FromCtx(ctx).Info("Booking payment succeeded",
					zap.String("booking_id", bookingID),
					zap.String("intent_id", res.IntentID),
					zap.String("schedule", string(res.Schedule)),
					zap.String("amount", res.Amount.StringFixed(2)),
				)
			},
			OnCancel: func(ctx context.Context, bookingID string) {
				logger.FromCtx(ctx).Info("Checkout closed by payer", zap.String("booking_id", bookingID))
			},
		},
	}, cfg.SessionTTL)

	validator, err := transport.NewEventValidator()
	if err != nil {
		return nil, err
	}

	h := transport.NewHandler(transport.HandlerDeps{
		Bookings:  bookings,
		Store:     store,
		Retriever: gateway,
		Ledger:    ledger,
		Validator: validator,
		DB:        database,
	})

	limiter := middleware.NewRateLimiter()
	return &server{
		handler: withMiddleware(cfg, limiter, setupRouter(h, reg)),
		store:   store,
		limiter: limiter,
	}, nil
}

func setupRouter(h *transport.Handler, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// withMiddleware applies the chain outermost first: request id, access log,
// CORS, auth, then rate limiting keyed on the resolved client.
func withMiddleware(cfg *config.Config, limiter *middleware.RateLimiter, next http.Handler) http.Handler {
	h := limiter.Middleware(next)
	h = middleware.AuthMiddleware(middleware.AuthConfig{
		Secret:      []byte(cfg.JWTSecret),
		InternalKey: cfg.InternalSecretKey,
	})(h)
	h = middleware.CORS(cfg.CORSOrigin)(h)
	h = logger.LoggingMiddleware(h)
	return logger.RequestIDMiddleware(h)
}
