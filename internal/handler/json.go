package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-checkout/internal/domain/catalog"
	"github.com/xenking/kart-checkout/internal/domain/order"
	"github.com/xenking/kart-checkout/internal/domain/pricing"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

type encoder struct {
	jx.Encoder
}

// money writes minor units as a major unit JSON number with two decimals.
func money(e *jx.Encoder, minor int64) {
	e.Num(jx.Num(catalog.MajorUnits(minor).StringFixed(2)))
}

func (e *encoder) item(item catalog.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int(item.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(item.Name) })
		e.Field("price", func(e *jx.Encoder) { money(e, item.Price) })
	})
}

// quoteFields writes the fields of q into the currently open object.
func (e *encoder) quoteFields(q pricing.Quote, items catalog.Catalog) {
	e.Field("items", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, l := range q.Lines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("itemId", func(e *jx.Encoder) { e.Int(l.ItemID) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					if item, ok := items.Lookup(l.ItemID); ok {
						e.Field("name", func(e *jx.Encoder) { e.Str(item.Name) })
						e.Field("unitPrice", func(e *jx.Encoder) { money(e, item.Price) })
					}
				})
			}
		})
	})
	if len(q.Unknown) > 0 {
		e.Field("unknown", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, id := range q.Unknown {
					e.Int(id)
				}
			})
		})
	}
	e.Field("discounts", func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("packs", func(e *jx.Encoder) { e.Int(q.Packs) })
			e.Field("packAmount", func(e *jx.Encoder) { money(e, q.PackAmount) })
			e.Field("twoForOne", func(e *jx.Encoder) { money(e, q.TwoForOneAmount) })
			e.Field("minimumSpend", func(e *jx.Encoder) { money(e, q.MinimumSpendAmount) })
		})
	})
	e.Field("total", func(e *jx.Encoder) { e.Num(jx.Num(q.Total.StringFixed(2))) })
}

func writeJSON(w http.ResponseWriter, status int, f func(e *encoder)) {
	e := &encoder{}
	f(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodeLine reads {"itemId":N,"quantity":N}. Quantities above
// order.MaxQuantity are rejected; lower bounds are left to order.Order.
func decodeLine(d *jx.Decoder) (order.Line, error) {
	var (
		l     order.Line
		hasID bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "itemId":
			l.ItemID, err = d.Int()
			hasID = true
		case "quantity":
			l.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return order.Line{}, err
	}
	if !hasID {
		return order.Line{}, errors.New("missing itemId")
	}
	if l.Quantity > order.MaxQuantity {
		return order.Line{}, errors.Errorf("quantity %d exceeds %d", l.Quantity, order.MaxQuantity)
	}
	return l, nil
}

// decodeQuoteRequest reads {"items":[line...]} into an order, merging
// duplicates and dropping invalid quantities.
func decodeQuoteRequest(r io.Reader) (*order.Order, error) {
	o := order.New()
	d := jx.Decode(io.LimitReader(r, maxBodySize), 1024)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			l, err := decodeLine(d)
			if err != nil {
				return err
			}
			o.Add(l.ItemID, l.Quantity)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return o, nil
}

// decodeCartItem reads a single line.
func decodeCartItem(r io.Reader) (order.Line, error) {
	return decodeLine(jx.Decode(io.LimitReader(r, maxBodySize), 512))
}
