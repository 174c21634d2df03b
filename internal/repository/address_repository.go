package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

type AddressRepository struct{}

func NewAddressRepository() *AddressRepository {
	return &AddressRepository{}
}

// Resolve picks the delivery address for a checkout: an existing address the
// buyer owns, an ad-hoc address created on the spot, or the buyer's default.
func (r *AddressRepository) Resolve(ctx context.Context, db DB, userID int64, ref domain.AddressRef) (int64, error) {
	switch {
	case ref.AddressID != 0:
		var id int64
		err := db.QueryRow(ctx,
			`SELECT id FROM addresses WHERE id = $1 AND user_id = $2`, ref.AddressID, userID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAddressNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("resolve address: %w", err)
		}
		return id, nil

	case ref.New != nil:
		var id int64
		err := db.QueryRow(ctx,
			`INSERT INTO addresses (user_id, recipient, phone, zip_code, line1, line2)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			userID, ref.New.Recipient, ref.New.Phone, ref.New.ZipCode, ref.New.Line1, ref.New.Line2).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("create address: %w", err)
		}
		return id, nil

	default:
		var id int64
		err := db.QueryRow(ctx,
			`SELECT id FROM addresses WHERE user_id = $1 AND is_default ORDER BY id LIMIT 1`, userID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAddressNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("resolve default address: %w", err)
		}
		return id, nil
	}
}
