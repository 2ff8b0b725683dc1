// Package handler serves the checkout HTTP API.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/kart-checkout/internal/cart"
	"github.com/xenking/kart-checkout/internal/domain/auth"
	"github.com/xenking/kart-checkout/internal/domain/catalog"
	"github.com/xenking/kart-checkout/internal/domain/pricing"
)

// Handler prices orders and manages carts over HTTP.
type Handler struct {
	catalog *catalog.Static
	calc    *pricing.Calculator
	carts   *cart.Store
	quotes  metric.Int64Counter
}

// NewHandler constructs a Handler. Quotes are counted on the kart.quotes
// instrument of mp.
func NewHandler(
	items *catalog.Static,
	calc *pricing.Calculator,
	carts *cart.Store,
	mp metric.MeterProvider,
) (*Handler, error) {
	quotes, err := mp.Meter("github.com/xenking/kart-checkout/internal/handler").Int64Counter("kart.quotes",
		metric.WithDescription("Number of priced orders"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "quotes counter")
	}
	return &Handler{
		catalog: items,
		calc:    calc,
		carts:   carts,
		quotes:  quotes,
	}, nil
}

// Register mounts the API routes on mux. Quote and cart routes go through
// authn; a nil authn leaves them open.
func (h *Handler) Register(mux *http.ServeMux, authn *Authenticator) {
	quote := authn.Require(auth.ScopeQuote)
	carts := authn.Require(auth.ScopeCart)

	mux.HandleFunc("GET /api/item", h.ListItems)
	mux.HandleFunc("GET /api/item/{itemId}", h.GetItem)
	mux.Handle("POST /api/quote", quote(http.HandlerFunc(h.Quote)))
	mux.Handle("POST /api/cart", carts(http.HandlerFunc(h.CreateCart)))
	mux.Handle("GET /api/cart/{cartId}", carts(http.HandlerFunc(h.GetCart)))
	mux.Handle("POST /api/cart/{cartId}/items", carts(http.HandlerFunc(h.AddCartItem)))
	mux.Handle("DELETE /api/cart/{cartId}", carts(http.HandlerFunc(h.DeleteCart)))
}

// ListItems returns the whole catalog ordered by id.
func (h *Handler) ListItems(w http.ResponseWriter, _ *http.Request) {
	items := h.catalog.Items()
	writeJSON(w, http.StatusOK, func(e *encoder) {
		e.ArrStart()
		for _, item := range items {
			e.item(item)
		}
		e.ArrEnd()
	})
}

// GetItem returns one catalog item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("itemId"))
	if err != nil {
		writeError(w, r, badRequest("invalid item id"))
		return
	}
	item, ok := h.catalog.Lookup(id)
	if !ok {
		writeError(w, r, notFound("item %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, func(e *encoder) { e.item(item) })
}
