package api

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/storekit/pos-checkout/internal/domain/product"
)

// ListProducts returns the catalog in listing order, including per-product
// capability fields when present.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.store.Products()

	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encodeProduct(e, p)
		}
	})
	writeJSON(w, http.StatusOK, &e)
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID()) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name()) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price().String()) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock()) })
		if w, ok := p.ShippingWeight(); ok {
			e.Field("weight_kg", func(e *jx.Encoder) { e.Str(w.String()) })
		}
		if exp, ok := p.ExpiresAt(); ok {
			e.Field("expires_at", func(e *jx.Encoder) { e.Str(exp.Format(time.RFC3339)) })
		}
	})
}
