package repository

import (
	"context"
	"fmt"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

type CartRepository struct{}

func NewCartRepository() *CartRepository {
	return &CartRepository{}
}

func (r *CartRepository) ListByBuyer(ctx context.Context, db DB, buyerID int64) ([]domain.CartLine, error) {
	rows, err := db.Query(ctx,
		`SELECT id, buyer_id, item_id, quantity FROM carts WHERE buyer_id = $1 ORDER BY id`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.BuyerID, &line.ItemID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("list cart: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range lines {
		optionIDs, err := r.listOptionIDs(ctx, db, lines[i].ID)
		if err != nil {
			return nil, err
		}
		lines[i].OptionItemIDs = optionIDs
	}
	return lines, nil
}

func (r *CartRepository) listOptionIDs(ctx context.Context, db DB, cartID int64) ([]int64, error) {
	rows, err := db.Query(ctx,
		`SELECT option_item_id FROM cart_options WHERE cart_id = $1`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart options: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list cart options: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteByBuyerItem clears cart lines for one item after a single-item
// checkout consumed them.
func (r *CartRepository) DeleteByBuyerItem(ctx context.Context, db DB, buyerID, itemID int64) error {
	if _, err := db.Exec(ctx,
		`DELETE FROM cart_options WHERE cart_id IN (SELECT id FROM carts WHERE buyer_id = $1 AND item_id = $2)`,
		buyerID, itemID); err != nil {
		return fmt.Errorf("clear cart options: %w", err)
	}
	if _, err := db.Exec(ctx,
		`DELETE FROM carts WHERE buyer_id = $1 AND item_id = $2`, buyerID, itemID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, db DB, cartIDs []int64) error {
	if len(cartIDs) == 0 {
		return nil
	}
	if _, err := db.Exec(ctx,
		`DELETE FROM cart_options WHERE cart_id = ANY($1)`, cartIDs); err != nil {
		return fmt.Errorf("clear cart options: %w", err)
	}
	if _, err := db.Exec(ctx,
		`DELETE FROM carts WHERE id = ANY($1)`, cartIDs); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
