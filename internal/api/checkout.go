package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/storekit/pos-checkout/internal/domain/cart"
	"github.com/storekit/pos-checkout/internal/domain/checkout"
	"github.com/storekit/pos-checkout/internal/domain/customer"
	"github.com/storekit/pos-checkout/internal/domain/product"
	"github.com/storekit/pos-checkout/internal/storage/memory"
)

// maxCheckoutBody caps the request body at 1 MiB.
const maxCheckoutBody = 1 << 20

// checkoutRequest is the decoded POST /api/checkout body.
type checkoutRequest struct {
	CustomerID string
	Items      []checkoutItem
}

type checkoutItem struct {
	ProductID string
	Quantity  int
}

// Checkout builds a cart from the request, runs the checkout pipeline inside
// the store's exclusive transactional scope, and returns the receipt or the
// mapped failure.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCheckoutBody))
	if err != nil {
		h.record(ctx, "invalid")
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	req, err := decodeCheckoutRequest(body)
	if err != nil {
		h.record(ctx, "invalid")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		h.record(ctx, "invalid")
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	// The whole lookup-build-checkout sequence runs under the store lock so
	// no concurrent checkout can interleave stock or balance access.
	var receipt *checkout.Receipt
	err = h.store.Tx(func(tx *memory.Tx) error {
		cust, err := tx.Customer(req.CustomerID)
		if err != nil {
			return err
		}

		crt := cart.New()
		for _, item := range req.Items {
			p, err := tx.Product(item.ProductID)
			if err != nil {
				return errors.Wrapf(err, "product %s", item.ProductID)
			}
			if err := crt.AddItem(p, item.Quantity); err != nil {
				return err
			}
		}

		receipt, err = h.checkout.Checkout(ctx, cust, crt)
		return err
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	h.record(ctx, "ok")
	var e jx.Encoder
	encodeReceipt(&e, receipt)
	writeJSON(w, http.StatusOK, &e)
}

// writeCheckoutError maps domain failures to HTTP statuses: bad input 400,
// unknown IDs 404, expired or out-of-stock conflicts 409, and insufficient
// funds 402.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		h.record(ctx, "empty_cart")
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		h.record(ctx, "invalid")
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, customer.ErrNotFound), errors.Is(err, product.ErrNotFound):
		h.record(ctx, "not_found")
		writeError(w, http.StatusNotFound, err.Error())
	default:
		var (
			expErr *checkout.ExpiredProductError
			oosErr *product.OutOfStockError
			ifErr  *customer.InsufficientFundsError
		)
		switch {
		case errors.As(err, &expErr):
			h.record(ctx, "expired")
			writeError(w, http.StatusConflict, expErr.Error())
		case errors.As(err, &oosErr):
			h.record(ctx, "out_of_stock")
			writeError(w, http.StatusConflict, oosErr.Error())
		case errors.As(err, &ifErr):
			h.record(ctx, "insufficient_funds")
			writeError(w, http.StatusPaymentRequired, ifErr.Error())
		default:
			h.record(ctx, "error")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

// record counts one checkout attempt with its result attribute.
func (h *Handler) record(ctx context.Context, result string) {
	h.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// decodeCheckoutRequest parses {customer_id, items: [{product_id, quantity}]}.
func decodeCheckoutRequest(data []byte) (checkoutRequest, error) {
	var req checkoutRequest
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "customer_id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			req.CustomerID = v
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item checkoutItem
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "product_id":
						v, err := d.Str()
						if err != nil {
							return err
						}
						item.ProductID = v
						return nil
					case "quantity":
						v, err := d.Int()
						if err != nil {
							return err
						}
						item.Quantity = v
						return nil
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return checkoutRequest{}, errors.Wrap(err, "decode checkout request")
	}
	return req, nil
}

// encodeReceipt writes the receipt JSON with decimal amounts as strings.
func encodeReceipt(e *jx.Encoder, rec *checkout.Receipt) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(rec.ID) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, line := range rec.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(line.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
						e.Field("line_total", func(e *jx.Encoder) { e.Str(line.LineTotal.String()) })
					})
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { e.Str(rec.Subtotal.String()) })
		e.Field("shipping_fee", func(e *jx.Encoder) { e.Str(rec.ShippingFee.String()) })
		e.Field("total", func(e *jx.Encoder) { e.Str(rec.Total.String()) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(rec.CreatedAt.Format(time.RFC3339)) })
	})
}
