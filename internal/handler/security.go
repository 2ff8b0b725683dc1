package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/auth"
	"github.com/xenking/kart-checkout/pkg/httpmiddleware"
)

// HeaderAPIKey carries the terminal API key.
const HeaderAPIKey = "api_key"

// Authenticator checks terminal API keys against their stored HMAC-SHA256
// hashes.
type Authenticator struct {
	keys   auth.Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(keys auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{
		keys:   keys,
		pepper: pepper,
	}
}

var errHashMismatch = errors.New("key hash mismatch")

// Authenticate resolves a raw API key. Errors other than auth.ErrKeyNotFound
// and a hash mismatch come from the key store.
func (a *Authenticator) Authenticate(ctx context.Context, key string) (*auth.Key, error) {
	hash := auth.Hash(a.pepper, key)
	k, err := a.keys.FindByHash(ctx, hash)
	if err != nil {
		return nil, errors.Wrap(err, "find key")
	}
	if subtle.ConstantTimeCompare([]byte(hash), []byte(k.KeyHash)) != 1 {
		return nil, errHashMismatch
	}
	return k, nil
}

// Require rejects requests without a valid key carrying scope. On a nil
// Authenticator it passes every request through.
func (a *Authenticator) Require(scope string) httpmiddleware.Middleware {
	if a == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(HeaderAPIKey)
			if raw == "" {
				writeError(w, r, errUnauthorized)
				return
			}
			k, err := a.Authenticate(ctx, raw)
			switch {
			case errors.Is(err, auth.ErrKeyNotFound), errors.Is(err, errHashMismatch):
				zctx.From(ctx).Debug("API key rejected", zap.Error(err))
				writeError(w, r, errUnauthorized)
				return
			case err != nil:
				writeError(w, r, errors.Wrap(err, "authenticate"))
				return
			}
			if !k.HasScope(scope) {
				writeError(w, r, errForbidden)
				return
			}

			ctx = auth.WithKey(ctx, k)
			ctx = zctx.With(ctx, zap.String("api_key", k.Name))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
