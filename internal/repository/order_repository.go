package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

type OrderRepository struct{}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

const orderColumns = `id, receipt_id, buyer_id, seller_id, item_id, target_kind, quantity, price, delivery_fee, status, address_id, created_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.ReceiptID, &o.BuyerID, &o.SellerID, &o.ItemID, &o.Kind,
		&o.Quantity, &o.Price, &o.DeliveryFee, &o.Status, &o.AddressID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Insert(ctx context.Context, db DB, o *domain.Order) (int64, error) {
	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO orders (receipt_id, buyer_id, seller_id, item_id, target_kind, quantity, price, delivery_fee, status, address_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		o.ReceiptID, o.BuyerID, o.SellerID, o.ItemID, o.Kind, o.Quantity, o.Price,
		o.DeliveryFee, o.Status, o.AddressID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (r *OrderRepository) InsertOptions(ctx context.Context, db DB, orderID int64, optionItemIDs []int64) error {
	for _, optionID := range optionItemIDs {
		if _, err := db.Exec(ctx,
			`INSERT INTO order_options (order_id, option_item_id) VALUES ($1, $2)`,
			orderID, optionID); err != nil {
			return fmt.Errorf("insert order option: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, db DB, id int64) (*domain.Order, error) {
	o, err := scanOrder(db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByReceipt(ctx context.Context, db DB, receiptID int64) ([]domain.Order, error) {
	rows, err := db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE receipt_id = $1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OrderRepository) ListOptionItemIDs(ctx context.Context, db DB, orderID int64) ([]int64, error) {
	rows, err := db.Query(ctx,
		`SELECT option_item_id FROM order_options WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order options: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list order options: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *OrderRepository) UpdateStatusByReceipt(ctx context.Context, db DB, receiptID int64, status domain.OrderStatus) error {
	_, err := db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE receipt_id = $1`, receiptID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
