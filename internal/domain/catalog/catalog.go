package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateItem is returned when a catalog source lists the same item id twice.
	ErrDuplicateItem = errors.New("duplicate item id")
	// ErrFractionalPrice is returned when a price cannot be expressed in whole minor units.
	ErrFractionalPrice = errors.New("price has sub-cent precision")
)

// Item is a catalog entry. Price is in minor currency units (cents).
type Item struct {
	ID    int
	Name  string
	Price int64
}

// Catalog resolves items by id. A missing item is a regular outcome, not an
// error.
type Catalog interface {
	Lookup(id int) (Item, bool)
}

// Repository loads the full item list from a backing store.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
}

// Static is an immutable in-memory Catalog.
type Static struct {
	items map[int]Item
}

var _ Catalog = (*Static)(nil)

// NewStatic indexes items by id.
func NewStatic(items []Item) (*Static, error) {
	m := make(map[int]Item, len(items))
	for _, it := range items {
		if _, ok := m[it.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateItem, "item %d", it.ID)
		}
		m[it.ID] = it
	}
	return &Static{items: m}, nil
}

// Load reads every item from repo into a Static catalog.
func Load(ctx context.Context, repo Repository) (*Static, error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	return NewStatic(items)
}

// Lookup returns the item with the given id.
func (s *Static) Lookup(id int) (Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// Items returns all items ordered by id.
func (s *Static) Items() []Item {
	out := lo.Values(s.items)
	slices.SortFunc(out, func(a, b Item) int { return a.ID - b.ID })
	return out
}

// Len returns the number of items.
func (s *Static) Len() int {
	return len(s.items)
}

// MinorUnits converts a major-unit amount (e.g. "5.00") to minor units.
func MinorUnits(price decimal.Decimal) (int64, error) {
	cents := price.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, errors.Wrapf(ErrFractionalPrice, "%s", price)
	}
	return cents.IntPart(), nil
}

// MajorUnits converts minor units to an exact major-unit decimal.
func MajorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
