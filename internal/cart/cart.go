// Package cart keeps in-progress orders for checkout sessions.
//
// Every cart owns a single order.Order guarded by its own mutex, so
// concurrent requests against one cart are serialized while different carts
// proceed independently. Carts expire after a period of inactivity.
package cart

import (
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/xenking/kart-checkout/internal/domain/order"
	"github.com/xenking/kart-checkout/internal/domain/pricing"
)

// ErrNotFound is returned for unknown or expired carts.
var ErrNotFound = errors.New("cart not found")

// session is a single cart.
type session struct {
	mu    sync.Mutex
	order *order.Order
}

// Store holds carts in memory.
type Store struct {
	ttl   time.Duration
	cache *gocache.Cache
	newID func() string
}

// NewStore creates a Store whose carts expire after ttl without access.
// Expired carts are swept every cleanup interval.
func NewStore(ttl, cleanup time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		cache: gocache.New(ttl, cleanup),
		newID: func() string { return uuid.New().String() },
	}
}

// Create starts an empty cart and returns its id.
func (s *Store) Create() string {
	id := s.newID()
	s.cache.Set(id, &session{order: order.New()}, s.ttl)
	return id
}

// Add adds quantity units of itemID to the cart and returns the resulting
// lines. Quantities below 1 leave the cart unchanged.
func (s *Store) Add(id string, itemID, quantity int) ([]order.Line, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.order.Add(itemID, quantity)
	return sess.order.Lines(), nil
}

// Lines returns the lines of the cart.
func (s *Store) Lines(id string) ([]order.Line, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.order.Lines(), nil
}

// Quote prices the cart with calc.
func (s *Store) Quote(id string, calc *pricing.Calculator) (pricing.Quote, error) {
	sess, err := s.get(id)
	if err != nil {
		return pricing.Quote{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return calc.Quote(sess.order.Lines()), nil
}

// Delete removes the cart.
func (s *Store) Delete(id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.cache.Delete(id)
	return nil
}

// Len returns the number of live carts, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// get fetches a cart and extends its expiry.
func (s *Store) get(id string) (*session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	sess := v.(*session)
	s.cache.Set(id, sess, s.ttl)
	return sess, nil
}
