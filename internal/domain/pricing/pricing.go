package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/catalog"
	"github.com/xenking/kart-checkout/internal/domain/discount"
	"github.com/xenking/kart-checkout/internal/domain/order"
)

// Quote is the price breakdown of an order. Amounts are minor units unless
// stated otherwise.
type Quote struct {
	// Lines are the order lines as given.
	Lines []order.Line
	// Unknown lists item ids missing from the catalog; they are not charged.
	Unknown []int

	Packs              int
	PackAmount         int64
	TwoForOneAmount    int64
	MinimumSpendAmount int64

	// Subtotal is the charged amount in minor units.
	Subtotal int64
	// Total is Subtotal in major units.
	Total decimal.Decimal
}

// Calculator prices orders against a catalog and the promotion config.
type Calculator struct {
	catalog   catalog.Catalog
	discounts discount.Config
}

// NewCalculator creates a Calculator.
func NewCalculator(c catalog.Catalog, discounts discount.Config) *Calculator {
	return &Calculator{
		catalog:   c,
		discounts: discounts,
	}
}

// Total returns the order total in major units.
func (c *Calculator) Total(o *order.Order) decimal.Decimal {
	return c.Quote(o.Lines()).Total
}

// Quote prices lines. Promotions apply in a fixed order: packs are taken out
// first, the remaining units are priced per line with two-for-one, and the
// minimum spend discount is checked against the resulting subtotal.
func (c *Calculator) Quote(lines []order.Line) Quote {
	q := Quote{Lines: lines}

	var subtotal int64

	// Packs.
	q.Packs = discount.PacksQuantity(c.discounts.Pack, lines)
	remaining := discount.WithoutPacks(c.discounts.Pack, lines, q.Packs)
	subtotal = discount.AddPacks(c.discounts.Pack, subtotal, q.Packs)
	q.PackAmount = subtotal

	// Per-line pricing with two-for-one.
	for _, l := range remaining {
		item, ok := c.catalog.Lookup(l.ItemID)
		if !ok {
			q.Unknown = append(q.Unknown, l.ItemID)
			continue
		}
		subtotal += item.Price * int64(l.Quantity)

		discounted := discount.TwoForOne(c.discounts.TwoForOne, l, item.Price, subtotal)
		q.TwoForOneAmount += subtotal - discounted
		subtotal = discounted
	}

	// Minimum spend.
	final := discount.MinimumSpend(c.discounts.MinimumSpend, subtotal)
	q.MinimumSpendAmount = subtotal - final

	q.Subtotal = final
	q.Total = catalog.MajorUnits(final)
	return q
}
