package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopgrid/server/internal/model"
)

// CartRepo defines the interface for cart item repository operations. Cart
// items are scoped by user; lookups by id always check ownership.
type CartRepo interface {
	GetForUser(ctx context.Context, id, userID int64) (model.CartItem, error)
	GetByUserAndProduct(ctx context.Context, userID, productID int64) (model.CartItem, error)
	Insert(ctx context.Context, userID, productID int64, quantity int) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
	ClearForUser(ctx context.Context, userID int64) error
	ListForUser(ctx context.Context, userID int64) ([]model.CartItem, error)
}

type cartRepo struct {
	db *sql.DB
}

// NewCartRepo creates a new CartRepo instance
func NewCartRepo(db *sql.DB) CartRepo {
	return &cartRepo{db: db}
}

func (r *cartRepo) scanItem(row *sql.Row, label string) (model.CartItem, error) {
	var item model.CartItem
	err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CartItem{}, fmt.Errorf("%s: %w", label, ErrNotFound)
		}
		return model.CartItem{}, fmt.Errorf("query %s: %w", label, err)
	}
	return item, nil
}

// GetForUser retrieves a cart item by id, restricted to the owning user.
func (r *cartRepo) GetForUser(ctx context.Context, id, userID int64) (model.CartItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, quantity
		FROM cart_items
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	return r.scanItem(row, "cart item")
}

// GetByUserAndProduct retrieves the user's cart line for a product, if any.
func (r *cartRepo) GetByUserAndProduct(ctx context.Context, userID, productID int64) (model.CartItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, quantity
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	return r.scanItem(row, "cart item")
}

// Insert creates a new cart line.
func (r *cartRepo) Insert(ctx context.Context, userID, productID int64, quantity int) (model.CartItem, error) {
	item := model.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, productID, quantity).Scan(&item.ID)
	if err != nil {
		return model.CartItem{}, fmt.Errorf("insert cart item: %w", err)
	}
	return item, nil
}

// UpdateQuantity sets the quantity of a cart line.
func (r *cartRepo) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $2 WHERE id = $1
	`, id, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a cart line.
func (r *cartRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return nil
}

// ClearForUser removes all of the user's cart lines.
func (r *cartRepo) ClearForUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ListForUser returns the user's cart lines with their products attached.
func (r *cartRepo) ListForUser(ctx context.Context, userID int64) ([]model.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity,
		       p.id, p.name, p.mrp_price, p.sale_price, p.price_unit, p.shipping_info,
		       p.sample_requirement, p.long_description, p.features, p.available_quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]model.CartItem, 0)
	for rows.Next() {
		var item model.CartItem
		var product model.Product
		var features []byte
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
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
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if err := json.Unmarshal(features, &product.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features: %w", err)
		}
		item.Product = &product
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}
