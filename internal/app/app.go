package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/storekit/pos-checkout/db"
	"github.com/storekit/pos-checkout/internal/api"
	"github.com/storekit/pos-checkout/internal/domain/cart"
	"github.com/storekit/pos-checkout/internal/domain/checkout"
	"github.com/storekit/pos-checkout/internal/storage/memory"
	"github.com/storekit/pos-checkout/pkg/health"
	"github.com/storekit/pos-checkout/pkg/httpmiddleware"
)

// logNotifier reports shipment manifests through the server log instead of a
// terminal; the demo CLI uses the console notifier for the same interface.
type logNotifier struct {
	lg *zap.Logger
}

func (n *logNotifier) Ship(_ context.Context, manifest []cart.Item) error {
	totalKg := decimal.Zero
	for _, item := range manifest {
		w, ok := item.Product.ShippingWeight()
		if !ok {
			continue
		}
		kg := w.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totalKg = totalKg.Add(kg)
		n.lg.Info("Packing item",
			zap.String("product", item.Product.Name()),
			zap.Int("quantity", item.Quantity),
			zap.String("weight_kg", kg.String()),
		)
	}
	n.lg.Info("Shipment dispatched", zap.String("total_weight_kg", totalKg.StringFixed(1)))
	return nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	rate, err := cfg.ShippingRate()
	if err != nil {
		return err
	}

	// Catalog and customers come from a fixture; there is no cross-run
	// persistence.
	var store *memory.Store
	if cfg.FixturePath != "" {
		store, err = memory.LoadFixture(cfg.FixturePath)
	} else {
		store, err = memory.FromFixture(db.SeedCatalog)
	}
	if err != nil {
		return errors.Wrap(err, "load catalog fixture")
	}

	checkoutSvc := checkout.NewService(
		checkout.Config{ShippingRatePerKg: rate},
		&logNotifier{lg: lg.Named("shipping")},
	)

	h, err := api.NewHandler(store, checkoutSvc, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	handler := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(handler, "checkout-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Drain: stop advertising readiness, give load balancers a beat,
		// then shut the server down.
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	return g.Wait()
}
