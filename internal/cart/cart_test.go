package cart

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-checkout/internal/domain/catalog"
	"github.com/xenking/kart-checkout/internal/domain/discount"
	"github.com/xenking/kart-checkout/internal/domain/order"
	"github.com/xenking/kart-checkout/internal/domain/pricing"
)

func newTestStore() *Store {
	return NewStore(time.Minute, time.Minute)
}

func TestStore_CreateAndAdd(t *testing.T) {
	s := newTestStore()
	id := s.Create()
	require.NotEmpty(t, id)

	lines, err := s.Lines(id)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = s.Add(id, 2, 1)
	require.NoError(t, err)
	_, err = s.Add(id, 37, 6)
	require.NoError(t, err)
	lines, err = s.Add(id, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, []order.Line{
		{ItemID: 2, Quantity: 3},
		{ItemID: 37, Quantity: 6},
	}, lines)
}

func TestStore_AddInvalidQuantity(t *testing.T) {
	s := newTestStore()
	id := s.Create()

	lines, err := s.Add(id, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStore_NotFound(t *testing.T) {
	s := newTestStore()

	_, err := s.Add("missing", 1, 1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Lines("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Quote("missing", pricing.NewCalculator(nil, discount.Config{}))
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Delete("missing"), ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore()
	id := s.Create()
	require.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(id))

	_, err := s.Lines(id)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(20*time.Millisecond, time.Hour)
	id := s.Create()

	time.Sleep(50 * time.Millisecond)

	_, err := s.Lines(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Quote(t *testing.T) {
	c, err := catalog.NewStatic([]catalog.Item{
		{ID: 2, Price: 500},
		{ID: 37, Price: 300},
		{ID: 21, Price: 150},
	})
	require.NoError(t, err)
	calc := pricing.NewCalculator(c, discount.Config{
		MinimumSpend: discount.MinimumSpendConfig{MinimumAmount: 5000, DiscountAmount: 500},
	})

	s := newTestStore()
	id := s.Create()
	for _, l := range []order.Line{{ItemID: 2, Quantity: 1}, {ItemID: 37, Quantity: 6}, {ItemID: 21, Quantity: 4}} {
		_, err := s.Add(id, l.ItemID, l.Quantity)
		require.NoError(t, err)
	}

	q, err := s.Quote(id, calc)
	require.NoError(t, err)
	assert.Equal(t, int64(2900), q.Subtotal)
	assert.Equal(t, "29", q.Total.String())
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s := newTestStore()
	id := s.Create()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(id, i%5, 1)
			assert.NoError(t, err, fmt.Sprintf("add %d", i))
		}()
	}
	wg.Wait()

	lines, err := s.Lines(id)
	require.NoError(t, err)
	require.Len(t, lines, 5)

	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	assert.Equal(t, 50, total)
}
