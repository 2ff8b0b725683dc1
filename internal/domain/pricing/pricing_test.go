package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-checkout/internal/domain/catalog"
	"github.com/xenking/kart-checkout/internal/domain/discount"
	"github.com/xenking/kart-checkout/internal/domain/order"
)

// --- Fakes ---

// priceList is a Catalog keyed by item id with prices in cents.
type priceList map[int]int64

func (p priceList) Lookup(id int) (catalog.Item, bool) {
	price, ok := p[id]
	if !ok {
		return catalog.Item{}, false
	}
	return catalog.Item{ID: id, Price: price}, true
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testDiscounts() discount.Config {
	return discount.Config{
		TwoForOne: discount.TwoForOneConfig{ItemIDs: []int{10, 11}},
		MinimumSpend: discount.MinimumSpendConfig{
			MinimumAmount:  5000,
			DiscountAmount: 500,
		},
		Pack: discount.PackConfig{ItemIDs: []int{1, 4, 5}, FixedPrice: 650},
	}
}

func newOrder(pairs ...int) *order.Order {
	o := order.New()
	for i := 0; i+1 < len(pairs); i += 2 {
		o.Add(pairs[i], pairs[i+1])
	}
	return o
}

// --- Tests ---

func TestCalculator_Total(t *testing.T) {
	tests := []struct {
		name      string
		prices    priceList
		discounts discount.Config
		order     *order.Order
		want      decimal.Decimal
	}{
		{
			name:      "demo order without discounts",
			prices:    priceList{2: 500, 37: 300, 21: 150},
			discounts: testDiscounts(),
			order:     newOrder(2, 1, 37, 6, 21, 4),
			want:      d("29.00"),
		},
		{
			name:      "empty order",
			prices:    priceList{2: 500},
			discounts: testDiscounts(),
			order:     order.New(),
			want:      d("0"),
		},
		{
			name:      "unknown items only",
			prices:    priceList{},
			discounts: testDiscounts(),
			order:     newOrder(3, 2, 8, 1),
			want:      d("0"),
		},
		{
			name:      "unknown item is skipped",
			prices:    priceList{2: 500},
			discounts: testDiscounts(),
			order:     newOrder(2, 1, 99, 3),
			want:      d("5.00"),
		},
		{
			name:      "plain sum",
			prices:    priceList{2: 123, 3: 456},
			discounts: testDiscounts(),
			order:     newOrder(2, 1, 3, 1),
			want:      d("5.79"),
		},
		{
			name:      "two for one pair pays one unit",
			prices:    priceList{10: 320},
			discounts: testDiscounts(),
			order:     newOrder(10, 2),
			want:      d("3.20"),
		},
		{
			name:      "two for one odd quantity",
			prices:    priceList{10: 320},
			discounts: testDiscounts(),
			order:     newOrder(10, 3),
			want:      d("6.40"),
		},
		{
			name:      "minimum spend equal does not trigger",
			prices:    priceList{2: 5000},
			discounts: testDiscounts(),
			order:     newOrder(2, 1),
			want:      d("50.00"),
		},
		{
			name:      "minimum spend one above triggers",
			prices:    priceList{2: 5001},
			discounts: testDiscounts(),
			order:     newOrder(2, 1),
			want:      d("45.01"),
		},
		{
			name:      "minimum spend plus another item",
			prices:    priceList{2: 5000, 3: 250},
			discounts: testDiscounts(),
			order:     newOrder(2, 1, 3, 1),
			want:      d("47.50"), // 5000 + 250 - 500
		},
		{
			name:      "two for one and minimum spend combined",
			prices:    priceList{10: 5000, 3: 250},
			discounts: testDiscounts(),
			order:     newOrder(10, 2, 3, 3),
			want:      d("52.50"), // 5000*2 - 5000 + 750 - 500
		},
		{
			name:      "minimum spend reads subtotal after two for one",
			prices:    priceList{10: 3000},
			discounts: testDiscounts(),
			order:     newOrder(10, 2),
			want:      d("30.00"), // 6000 before, 3000 after two for one: no minimum spend
		},
		{
			name:      "single pack priced at fixed price",
			prices:    priceList{1: 450, 4: 200, 5: 180},
			discounts: testDiscounts(),
			order:     newOrder(1, 1, 4, 1, 5, 1),
			want:      d("6.50"),
		},
		{
			name:      "pack item prices are irrelevant",
			prices:    priceList{1: 99999, 4: 99999, 5: 99999},
			discounts: testDiscounts(),
			order:     newOrder(1, 1, 4, 1, 5, 1),
			want:      d("6.50"),
		},
		{
			name:      "multiple packs trigger minimum spend",
			prices:    priceList{1: 450, 4: 200, 5: 180},
			discounts: testDiscounts(),
			order:     newOrder(1, 8, 4, 8, 5, 8),
			want:      d("47.00"), // 8*650 - 500
		},
		{
			name:      "partial pack priced individually",
			prices:    priceList{1: 450, 4: 200, 5: 180},
			discounts: testDiscounts(),
			order:     newOrder(1, 3, 4, 2),
			want:      d("17.50"),
		},
		{
			name:      "leftover pack units priced individually",
			prices:    priceList{1: 100, 4: 10, 5: 1},
			discounts: testDiscounts(),
			order:     newOrder(1, 3, 4, 5, 5, 2),
			want:      d("14.30"), // 2*650 + 1*100 + 3*10 + 0*1
		},
		{
			name:   "pack units are not double discounted by two for one",
			prices: priceList{1: 400, 4: 200},
			discounts: discount.Config{
				TwoForOne:    discount.TwoForOneConfig{ItemIDs: []int{1}},
				MinimumSpend: discount.MinimumSpendConfig{MinimumAmount: 100000},
				Pack:         discount.PackConfig{ItemIDs: []int{1, 4}, FixedPrice: 500},
			},
			order: newOrder(1, 3, 4, 1),
			want:  d("9.00"), // pack 500, leftover 1x2 units of item 1: 800 - 400
		},
		{
			name:      "two for one, pack and minimum spend combined",
			prices:    priceList{10: 5000, 4: 200, 5: 180, 1: 450},
			discounts: testDiscounts(),
			order:     newOrder(10, 3, 4, 1, 5, 1),
			want:      d("98.80"), // no pack (item 1 missing): 15000 - 5000 + 200 + 180 - 500
		},
		{
			name:      "complete pack with two for one and minimum spend",
			prices:    priceList{10: 5000, 4: 200, 5: 180, 1: 450},
			discounts: testDiscounts(),
			order:     newOrder(10, 3, 1, 1, 4, 1, 5, 1),
			want:      d("101.50"), // 650 + 15000 - 5000 - 500
		},
		{
			name:   "unknown pack item still forms a pack",
			prices: priceList{1: 450, 4: 200},
			discounts: discount.Config{
				MinimumSpend: discount.MinimumSpendConfig{MinimumAmount: 100000},
				Pack:         discount.PackConfig{ItemIDs: []int{1, 4, 5}, FixedPrice: 650},
			},
			order: newOrder(1, 2, 4, 1, 5, 1),
			want:  d("11.00"), // 650 + 450
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(tt.prices, tt.discounts)

			got := calc.Total(tt.order)
			assert.True(t, tt.want.Equal(got), "expected total %s, got %s", tt.want, got)
		})
	}
}

func TestCalculator_Quote(t *testing.T) {
	prices := priceList{1: 450, 4: 200, 5: 180, 10: 320, 2: 5000}
	calc := NewCalculator(prices, testDiscounts())

	lines := newOrder(1, 2, 4, 1, 5, 1, 10, 4, 2, 1, 77, 1).Lines()
	q := calc.Quote(lines)

	assert.Equal(t, lines, q.Lines)
	assert.Equal(t, []int{77}, q.Unknown)
	assert.Equal(t, 1, q.Packs)
	assert.Equal(t, int64(650), q.PackAmount)
	assert.Equal(t, int64(640), q.TwoForOneAmount)
	assert.Equal(t, int64(500), q.MinimumSpendAmount)

	// 650 + 450 (leftover burger) + 1280 - 640 + 5000 - 500
	require.Equal(t, int64(6240), q.Subtotal)
	assert.True(t, d("62.40").Equal(q.Total))
}

func TestCalculator_QuoteDoesNotMutateOrder(t *testing.T) {
	calc := NewCalculator(priceList{1: 450, 4: 200, 5: 180}, testDiscounts())
	o := newOrder(1, 2, 4, 2, 5, 2)

	_ = calc.Total(o)
	_ = calc.Total(o)

	assert.Equal(t, []order.Line{
		{ItemID: 1, Quantity: 2},
		{ItemID: 4, Quantity: 2},
		{ItemID: 5, Quantity: 2},
	}, o.Lines())
	assert.True(t, d("13.00").Equal(calc.Total(o)))
}

func TestCalculator_StaticCatalog(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	calc := NewCalculator(c, testDiscounts())
	assert.True(t, d("29.00").Equal(calc.Total(newOrder(2, 1, 37, 6, 21, 4))))
}
