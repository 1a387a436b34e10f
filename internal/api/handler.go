// Package api exposes the catalog and checkout flow over HTTP. Handlers are
// hand-written net/http with go-faster/jx for JSON.
package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/metric"

	"github.com/storekit/pos-checkout/internal/domain/checkout"
	"github.com/storekit/pos-checkout/internal/storage/memory"
)

// Handler serves the catalog and checkout endpoints, delegating business
// logic to the checkout service and the store.
type Handler struct {
	store    *memory.Store
	checkout *checkout.Service

	attempts metric.Int64Counter
}

// NewHandler constructs a Handler with the required dependencies. The meter
// provider feeds the checkout attempt counter.
func NewHandler(store *memory.Store, svc *checkout.Service, mp metric.MeterProvider) (*Handler, error) {
	meter := mp.Meter("pos-checkout/api")
	attempts, err := meter.Int64Counter("checkout.attempts",
		metric.WithDescription("Checkout attempts by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create attempts counter")
	}

	return &Handler{
		store:    store,
		checkout: svc,
		attempts: attempts,
	}, nil
}

// Register attaches the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
}

// writeJSON writes an encoded jx payload with the JSON content type.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the {code, message} error body used by all endpoints.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	writeJSON(w, status, &e)
}
