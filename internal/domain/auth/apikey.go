package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"slices"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned by a Repository when no active key has the
// given hash.
var ErrKeyNotFound = errors.New("api key not found")

// Scopes granted to checkout terminals.
const (
	ScopeQuote = "quote"
	ScopeCart  = "cart"
)

// Key is a validated terminal API key.
type Key struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key grants scope.
func (k *Key) HasScope(scope string) bool {
	return slices.Contains(k.Scopes, scope)
}

// Repository provides lookup of API keys by their HMAC hash. Unknown hashes
// yield ErrKeyNotFound; any other error is a backing store failure.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Key, error)
}

// Hash returns the hex HMAC-SHA256 of key under pepper. Only hashes are
// stored.
func Hash(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

type ctxKey struct{}

// WithKey stores k in ctx.
func WithKey(ctx context.Context, k *Key) context.Context {
	return context.WithValue(ctx, ctxKey{}, k)
}

// FromContext returns the key authenticated for the request, if any.
func FromContext(ctx context.Context) (*Key, bool) {
	k, ok := ctx.Value(ctxKey{}).(*Key)
	return k, ok
}
