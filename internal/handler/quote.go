package handler

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-checkout/internal/domain/auth"
	"github.com/xenking/kart-checkout/internal/domain/pricing"
)

// Quote prices an order without storing it.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	o, err := decodeQuoteRequest(r.Body)
	if err != nil {
		writeError(w, r, badRequest("decode request: %s", err))
		return
	}

	q := h.calc.Quote(o.Lines())
	h.record(r.Context(), "quote", q)

	writeJSON(w, http.StatusOK, func(e *encoder) {
		e.ObjStart()
		e.quoteFields(q, h.catalog)
		e.ObjEnd()
	})
}

// record annotates the request span and counts the quote.
func (h *Handler) record(ctx context.Context, source string, q pricing.Quote) {
	attrs := []attribute.KeyValue{
		attribute.Int("kart.lines", len(q.Lines)),
		attribute.Int("kart.packs", q.Packs),
		attribute.Int64("kart.subtotal", q.Subtotal),
	}
	if k, ok := auth.FromContext(ctx); ok {
		attrs = append(attrs, attribute.String("kart.api_key", k.Name))
	}
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
	h.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
