package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

// ItemRepository is the read-only catalog boundary: it resolves an order
// target (item or reform proposal) with its option groups.
type ItemRepository struct{}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

func (r *ItemRepository) FindTarget(ctx context.Context, db DB, itemID int64) (domain.OrderTarget, error) {
	var (
		id, ownerID            int64
		basePrice, deliveryFee int64
		title                  string
		kind                   domain.TargetKind
	)
	err := db.QueryRow(ctx,
		`SELECT id, owner_id, title, base_price, delivery_fee, target_kind
		 FROM items WHERE id = $1`, itemID).
		Scan(&id, &ownerID, &title, &basePrice, &deliveryFee, &kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OrderTarget{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.OrderTarget{}, fmt.Errorf("find item: %w", err)
	}

	switch kind {
	case domain.TargetKindReform:
		return domain.ReformTarget(&domain.ReformProposal{
			ID:          id,
			OwnerID:     ownerID,
			Title:       title,
			AgreedPrice: basePrice,
			DeliveryFee: deliveryFee,
		}), nil
	default:
		item := &domain.Item{
			ID:          id,
			OwnerID:     ownerID,
			Title:       title,
			BasePrice:   basePrice,
			DeliveryFee: deliveryFee,
		}
		groups, err := r.loadOptionGroups(ctx, db, id)
		if err != nil {
			return domain.OrderTarget{}, err
		}
		item.OptionGroups = groups
		return domain.ItemTarget(item), nil
	}
}

func (r *ItemRepository) loadOptionGroups(ctx context.Context, db DB, itemID int64) ([]domain.OptionGroup, error) {
	rows, err := db.Query(ctx,
		`SELECT g.id, g.item_id, g.name, o.id, o.name, o.extra_price, o.quantity
		 FROM option_groups g
		 JOIN option_items o ON o.group_id = g.id
		 WHERE g.item_id = $1
		 ORDER BY g.id, o.id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("load option groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.OptionGroup
	byID := map[int64]int{}
	for rows.Next() {
		var g domain.OptionGroup
		var opt domain.OptionItem
		if err := rows.Scan(&g.ID, &g.ItemID, &g.Name, &opt.ID, &opt.Name, &opt.ExtraPrice, &opt.Quantity); err != nil {
			return nil, fmt.Errorf("load option groups: %w", err)
		}
		opt.GroupID = g.ID
		idx, ok := byID[g.ID]
		if !ok {
			groups = append(groups, g)
			idx = len(groups) - 1
			byID[g.ID] = idx
		}
		groups[idx].Options = append(groups[idx].Options, opt)
	}
	return groups, rows.Err()
}
