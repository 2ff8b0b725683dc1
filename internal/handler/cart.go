package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// CreateCart starts an empty cart.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	id := h.carts.Create()
	zctx.From(r.Context()).Debug("Cart created", zap.String("cart_id", id))

	writeJSON(w, http.StatusCreated, func(e *encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(id) })
		})
	})
}

// GetCart returns the priced cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r, r.PathValue("cartId"))
}

// AddCartItem adds units of a catalog item to the cart. Quantities below one
// leave the cart unchanged.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("cartId")
	l, err := decodeCartItem(r.Body)
	if err != nil {
		writeError(w, r, badRequest("decode request: %s", err))
		return
	}
	if _, ok := h.catalog.Lookup(l.ItemID); !ok {
		writeError(w, r, notFound("item %d not found", l.ItemID))
		return
	}
	if _, err := h.carts.Add(id, l.ItemID, l.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, r, id)
}

// DeleteCart discards the cart.
func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Delete(r.PathValue("cartId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, id string) {
	q, err := h.carts.Quote(id, h.calc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r.Context(), "cart", q)

	writeJSON(w, http.StatusOK, func(e *encoder) {
		e.ObjStart()
		e.Field("id", func(e *jx.Encoder) { e.Str(id) })
		e.quoteFields(q, h.catalog)
		e.ObjEnd()
	})
}
