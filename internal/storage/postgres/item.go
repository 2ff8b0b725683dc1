package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/catalog"
)

const (
	listItemsSQL = `SELECT id, name, price FROM items ORDER BY id`

	upsertItemSQL = `INSERT INTO items (id, name, price) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, updated_at = NOW()`
)

var _ catalog.Repository = (*ItemRepository)(nil)

// ItemRepository implements catalog.Repository backed by PostgreSQL. Prices
// are stored as NUMERIC major units.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns all catalog items ordered by id.
func (r *ItemRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// Upsert inserts or updates items in a single batch.
func (r *ItemRepository) Upsert(ctx context.Context, items []catalog.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(upsertItemSQL, it.ID, it.Name, catalog.MajorUnits(it.Price))
	}

	br := r.pool.SendBatch(ctx, batch)
	for _, it := range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upserting item %d: %w", it.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it    catalog.Item
		id    int32
		price decimal.Decimal
	)
	if err := row.Scan(&id, &it.Name, &price); err != nil {
		return catalog.Item{}, err
	}
	cents, err := catalog.MinorUnits(price)
	if err != nil {
		return catalog.Item{}, errors.Wrapf(err, "item %d", id)
	}
	it.ID = int(id)
	it.Price = cents
	return it, nil
}
