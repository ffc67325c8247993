package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primecut/pricing-service/internal/preview"
)

// CatalogRepository reads the product catalog. It implements
// preview.ProductCatalog.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a catalog repository on pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

var _ preview.ProductCatalog = (*CatalogRepository)(nil)

// Products returns every product ordered by product code.
func (c *CatalogRepository) Products(ctx context.Context) ([]preview.Product, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT product_code, product_name, category, cost
		FROM products
		ORDER BY product_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (preview.Product, error) {
		var p preview.Product
		err := row.Scan(&p.ProductCode, &p.ProductName, &p.Category, &p.Cost)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// DistinctCategories returns the non-empty categories in the catalog.
func (c *CatalogRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	return c.distinct(ctx, `
		SELECT DISTINCT category FROM products
		WHERE category <> ''
		ORDER BY category
	`)
}

// DistinctProductCodes returns every product code in the catalog.
func (c *CatalogRepository) DistinctProductCodes(ctx context.Context) ([]string, error) {
	return c.distinct(ctx, `SELECT product_code FROM products ORDER BY product_code`)
}

// UpsertProducts inserts or updates products by product code.
func (c *CatalogRepository) UpsertProducts(ctx context.Context, products []preview.Product) error {
	if len(products) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO products (product_code, product_name, category, cost)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_code) DO UPDATE SET
				product_name = EXCLUDED.product_name,
				category = EXCLUDED.category,
				cost = EXCLUDED.cost,
				updated_at = now()
		`, p.ProductCode, p.ProductName, p.Category, p.Cost)
	}

	if err := c.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert products: %w", err)
	}
	return nil
}

func (c *CatalogRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return values, nil
}
