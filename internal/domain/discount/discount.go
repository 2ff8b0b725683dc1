// Package discount implements the promotional rules applied at checkout.
//
// Rules are pure functions over order lines and running subtotals. Money is
// expressed in minor currency units. The order in which rules are applied is
// owned by the pricing calculator.
package discount

import (
	"github.com/samber/lo"

	"github.com/xenking/kart-checkout/internal/domain/order"
)

// Config holds the three promotion configurations.
type Config struct {
	TwoForOne    TwoForOneConfig
	MinimumSpend MinimumSpendConfig
	Pack         PackConfig
}

// TwoForOneConfig makes every second unit of the listed items free.
type TwoForOneConfig struct {
	ItemIDs []int `default:"10,11" usage:"Item ids where every second unit is free" validate:"unique"`
}

// MinimumSpendConfig grants a flat discount once the subtotal exceeds a threshold.
type MinimumSpendConfig struct {
	MinimumAmount  int64 `default:"5000" usage:"Subtotal (cents) that must be exceeded" validate:"gte=0"`
	DiscountAmount int64 `default:"500"  usage:"Discount (cents) granted above the minimum" validate:"gte=0"`
}

// PackConfig sells one unit of each listed item together at a fixed price.
type PackConfig struct {
	ItemIDs    []int `default:"1,4,5" usage:"Item ids forming one pack" validate:"unique"`
	FixedPrice int64 `default:"650"   usage:"Price (cents) of one complete pack" validate:"gte=0"`
}

// Eligible reports whether itemID gets the two-for-one discount.
func (c TwoForOneConfig) Eligible(itemID int) bool {
	return lo.Contains(c.ItemIDs, itemID)
}

// Contains reports whether itemID is part of the pack.
func (c PackConfig) Contains(itemID int) bool {
	return lo.Contains(c.ItemIDs, itemID)
}

// PacksQuantity returns how many complete packs the order holds. Every pack
// item must be present in the order; the count is bounded by the scarcest
// pack item.
func PacksQuantity(cfg PackConfig, lines []order.Line) int {
	if len(cfg.ItemIDs) == 0 {
		return 0
	}
	complete := lo.EveryBy(cfg.ItemIDs, func(id int) bool {
		return lo.ContainsBy(lines, func(l order.Line) bool { return l.ItemID == id })
	})
	if !complete {
		return 0
	}

	packs := 0 // 0 means unset
	for _, l := range lines {
		if !cfg.Contains(l.ItemID) || l.Quantity <= 0 {
			continue
		}
		if packs == 0 || l.Quantity < packs {
			packs = l.Quantity
		}
	}
	return packs
}

// WithoutPacks returns a copy of lines with packs units removed from every
// pack item. Lines may drop to zero quantity and are kept.
func WithoutPacks(cfg PackConfig, lines []order.Line, packs int) []order.Line {
	return lo.Map(lines, func(l order.Line, _ int) order.Line {
		if cfg.Contains(l.ItemID) {
			l.Quantity -= packs
		}
		return l
	})
}

// AddPacks adds the fixed price of packs complete packs to subtotal.
func AddPacks(cfg PackConfig, subtotal int64, packs int) int64 {
	return subtotal + int64(packs)*cfg.FixedPrice
}

// TwoForOne takes every second unit of an eligible line off subtotal. The
// subtotal must already include the line at full price.
func TwoForOne(cfg TwoForOneConfig, line order.Line, unitPrice, subtotal int64) int64 {
	if !cfg.Eligible(line.ItemID) {
		return subtotal
	}
	free := int64(line.Quantity / 2)
	return subtotal - free*unitPrice
}

// MinimumSpend subtracts the configured discount when subtotal strictly
// exceeds the minimum amount.
func MinimumSpend(cfg MinimumSpendConfig, subtotal int64) int64 {
	if subtotal > cfg.MinimumAmount {
		return subtotal - cfg.DiscountAmount
	}
	return subtotal
}
