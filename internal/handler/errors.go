package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/cart"
)

// apiError is an error with an HTTP status, rendered as {"code","message"}.
type apiError struct {
	Code    int
	Message string
}

func (e *apiError) Error() string { return e.Message }

func badRequest(format string, args ...any) error {
	return &apiError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &apiError{Code: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

var (
	errUnauthorized = &apiError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	errForbidden    = &apiError{Code: http.StatusForbidden, Message: "forbidden"}
)

// mapError converts domain errors to API errors. Unknown errors become 500.
func mapError(err error) *apiError {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, cart.ErrNotFound):
		return &apiError{Code: http.StatusNotFound, Message: err.Error()}
	default:
		return &apiError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := mapError(err)
	if apiErr.Code >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	writeJSON(w, apiErr.Code, func(e *encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(apiErr.Code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(apiErr.Message) })
		})
	})
}
