package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopgrid/server/internal/model"
)

// ProductRepo defines the interface for product repository operations
type ProductRepo interface {
	Create(ctx context.Context, product model.Product) (model.Product, error)
	GetByID(ctx context.Context, id int64) (model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
}

type productRepo struct {
	db *sql.DB
}

// NewProductRepo creates a new ProductRepo instance
func NewProductRepo(db *sql.DB) ProductRepo {
	return &productRepo{db: db}
}

const productColumns = `id, name, mrp_price, sale_price, price_unit, shipping_info,
	sample_requirement, long_description, features, available_quantity`

// Create inserts a product; features are stored as a JSON array.
func (r *productRepo) Create(ctx context.Context, product model.Product) (model.Product, error) {
	features, err := json.Marshal(product.Features)
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal features: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO products
			(name, mrp_price, sale_price, price_unit, shipping_info,
			 sample_requirement, long_description, features, available_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		product.Name,
		product.MRPPrice,
		product.SalePrice,
		product.PriceUnit,
		product.ShippingInfo,
		product.SampleRequirement,
		product.LongDescription,
		features,
		product.AvailableQuantity,
	).Scan(&product.ID)
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

// GetByID retrieves a product by ID
func (r *productRepo) GetByID(ctx context.Context, id int64) (model.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, id)

	product, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, fmt.Errorf("product: %w", ErrNotFound)
		}
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}
	return product, nil
}

// List returns all products
func (r *productRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(scan func(dest ...any) error) (model.Product, error) {
	var product model.Product
	var features []byte
	err := scan(
		&product.ID,
		&product.Name,
		&product.MRPPrice,
		&product.SalePrice,
		&product.PriceUnit,
		&product.ShippingInfo,
		&product.SampleRequirement,
		&product.LongDescription,
		&features,
		&product.AvailableQuantity,
	)
	if err != nil {
		return model.Product{}, err
	}
	if err := json.Unmarshal(features, &product.Features); err != nil {
		return model.Product{}, fmt.Errorf("unmarshal features: %w", err)
	}
	return product, nil
}
