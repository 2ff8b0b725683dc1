// Command checkout prices an order from the command line.
//
//	checkout [-catalog items.json] 2:1 37:6 21:4
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/catalog"
	"github.com/xenking/kart-checkout/internal/domain/discount"
	"github.com/xenking/kart-checkout/internal/domain/order"
	"github.com/xenking/kart-checkout/internal/domain/pricing"
)

// demoOrder is priced when no arguments are given.
var demoOrder = []string{"2:1", "37:6", "21:4"}

type config struct {
	Catalog   string `usage:"Catalog JSON or JSON.gz file; the built-in catalog when empty" flag:"catalog"`
	Verbose   bool   `usage:"Log debug output" flag:"v"`
	Discounts discount.Config
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "checkout:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, args []string) error {
	if len(args) == 0 {
		args = demoOrder
	}

	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:        "KART",
		SkipFiles:        true,
		AllowUnknownEnvs: true,
		Args:             args,
	})
	if err := loader.Load(); err != nil {
		return errors.Wrap(err, "load config")
	}

	lg := zap.NewNop()
	if cfg.Verbose {
		var err error
		if lg, err = zap.NewDevelopment(); err != nil {
			return errors.Wrap(err, "create logger")
		}
		defer func() { _ = lg.Sync() }()
	}

	items, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	lg.Debug("Catalog loaded", zap.Int("items", items.Len()), zap.String("path", cfg.Catalog))

	o, err := parseOrder(loader.Flags().Args())
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q := pricing.NewCalculator(items, cfg.Discounts).Quote(o.Lines())
	lg.Debug("Priced",
		zap.Int("packs", q.Packs),
		zap.Int64("subtotal", q.Subtotal),
		zap.Ints("unknown", q.Unknown),
	)
	return printQuote(out, items, q)
}

func openCatalog(path string) (*catalog.Static, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Open(path)
}

// parseOrder builds an order from "itemId:quantity" arguments. A bare item id
// means one unit.
func parseOrder(args []string) (*order.Order, error) {
	o := order.New()
	for _, arg := range args {
		id, qty, found := strings.Cut(arg, ":")
		itemID, err := strconv.Atoi(id)
		if err != nil {
			return nil, errors.Errorf("invalid item %q", arg)
		}
		quantity := 1
		if found {
			if quantity, err = strconv.Atoi(qty); err != nil {
				return nil, errors.Errorf("invalid quantity %q", arg)
			}
			if quantity > order.MaxQuantity {
				return nil, errors.Errorf("quantity %q exceeds %d", arg, order.MaxQuantity)
			}
		}
		o.Add(itemID, quantity)
	}
	return o, nil
}

func printQuote(out io.Writer, items catalog.Catalog, q pricing.Quote) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tQTY\tUNIT")
	for _, l := range q.Lines {
		item, ok := items.Lookup(l.ItemID)
		if !ok {
			fmt.Fprintf(tw, "%d\t(unknown)\t%d\t-\n", l.ItemID, l.Quantity)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", l.ItemID, item.Name, l.Quantity, catalog.MajorUnits(item.Price).StringFixed(2))
	}
	fmt.Fprintln(tw)
	if q.Packs > 0 {
		fmt.Fprintf(tw, "Packs\t%d\t\t%s\n", q.Packs, catalog.MajorUnits(q.PackAmount).StringFixed(2))
	}
	if q.TwoForOneAmount > 0 {
		fmt.Fprintf(tw, "Two for one\t\t\t-%s\n", catalog.MajorUnits(q.TwoForOneAmount).StringFixed(2))
	}
	if q.MinimumSpendAmount > 0 {
		fmt.Fprintf(tw, "Minimum spend\t\t\t-%s\n", catalog.MajorUnits(q.MinimumSpendAmount).StringFixed(2))
	}
	fmt.Fprintf(tw, "Total\t\t\t%s\n", q.Total.StringFixed(2))
	return tw.Flush()
}
