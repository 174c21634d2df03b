package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

// StockRepository mutates the per-option stock counters. Reservation is a
// conditional decrement so two concurrent checkouts can never drive a counter
// below zero; there is no row locking.
type StockRepository struct{}

func NewStockRepository() *StockRepository {
	return &StockRepository{}
}

// Reserve decrements the option's stock by qty. Options with NULL quantity
// are unlimited and succeed without touching the row.
func (r *StockRepository) Reserve(ctx context.Context, db DB, optionItemID int64, qty int32) error {
	tag, err := db.Exec(ctx,
		`UPDATE option_items SET quantity = quantity - $2
		 WHERE id = $1 AND quantity IS NOT NULL AND quantity >= $2`,
		optionItemID, qty)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// 0 rows: 무제한 재고이거나 재고 부족. 구분해서 응답한다.
	var name string
	var remaining *int32
	err = db.QueryRow(ctx,
		`SELECT name, quantity FROM option_items WHERE id = $1`, optionItemID).
		Scan(&name, &remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.InvalidOptionError{OptionItemID: optionItemID, Reason: "option does not exist"}
	}
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if remaining == nil {
		return nil // unlimited stock
	}
	return &domain.InsufficientStockError{
		OptionItemID: optionItemID,
		OptionName:   name,
		Remaining:    *remaining,
		Requested:    qty,
	}
}

// Restore adds qty back. No-op for unlimited-stock options.
func (r *StockRepository) Restore(ctx context.Context, db DB, optionItemID int64, qty int32) error {
	_, err := db.Exec(ctx,
		`UPDATE option_items SET quantity = quantity + $2
		 WHERE id = $1 AND quantity IS NOT NULL`,
		optionItemID, qty)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}
