package catalog

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/db"
)

// DecodeJSON parses a JSON array of items:
//
//	[{"id": 2, "name": "Fries", "price": "5.00"}]
//
// Prices are major units given as a string or a number.
func DecodeJSON(r io.Reader) ([]Item, error) {
	d := jx.Decode(r, 4096)

	var items []Item
	if err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode items")
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var (
		it       Item
		hasID    bool
		hasPrice bool
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "id")
			}
			it.ID, hasID = v, true
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			it.Name = v
		case "price":
			p, err := decodePrice(d)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			it.Price, hasPrice = p, true
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	if !hasID {
		return Item{}, errors.New("missing id")
	}
	if !hasPrice {
		return Item{}, errors.Errorf("item %d: missing price", it.ID)
	}
	return it, nil
}

func decodePrice(d *jx.Decoder) (int64, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		raw = n.String()
	default:
		return 0, errors.Errorf("unexpected %s", d.Next())
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	if price.IsNegative() {
		return 0, errors.Errorf("negative price %s", price)
	}
	return MinorUnits(price)
}

// ReadFile decodes the items of a catalog file. Files ending in ".gz" are
// decompressed.
func ReadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	items, err := DecodeJSON(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return items, nil
}

// Open builds a Static catalog from a catalog file.
func Open(path string) (*Static, error) {
	items, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewStatic(items)
}

// Default returns the catalog shipped with the binary.
func Default() (*Static, error) {
	items, err := DecodeJSON(bytes.NewReader(db.Items))
	if err != nil {
		return nil, errors.Wrap(err, "embedded catalog")
	}
	return NewStatic(items)
}
