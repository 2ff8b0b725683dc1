package order

// Line is a single item entry of an order.
type Line struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

// MaxQuantity bounds the quantity of a single line.
const MaxQuantity = 10_000

// Order accumulates lines for a single checkout. Adding an item that is
// already present increases the quantity of its existing line, so an Order
// holds at most one line per item, in the order items were first added.
//
// Order is not safe for concurrent use.
type Order struct {
	lines []Line
	index map[int]int // item id -> position in lines
}

// New returns an empty Order.
func New() *Order {
	return &Order{index: make(map[int]int)}
}

// Add records quantity units of itemID. Quantities below 1 are ignored, as
// is an add that would take the line above MaxQuantity.
func (o *Order) Add(itemID, quantity int) {
	if quantity < 1 || quantity > MaxQuantity {
		return
	}
	if o.index == nil {
		o.index = make(map[int]int)
	}
	if i, ok := o.index[itemID]; ok {
		if o.lines[i].Quantity > MaxQuantity-quantity {
			return
		}
		o.lines[i].Quantity += quantity
		return
	}
	o.index[itemID] = len(o.lines)
	o.lines = append(o.lines, Line{ItemID: itemID, Quantity: quantity})
}

// Lines returns a copy of the order lines in insertion order.
func (o *Order) Lines() []Line {
	out := make([]Line, len(o.lines))
	copy(out, o.lines)
	return out
}

// FromLines builds an Order by adding every line in sequence, merging
// duplicates and dropping non-positive quantities.
func FromLines(lines []Line) *Order {
	o := New()
	for _, l := range lines {
		o.Add(l.ItemID, l.Quantity)
	}
	return o
}
