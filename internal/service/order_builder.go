package service

import (
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

// BuildDraft validates a selection against the target's option groups and
// prices it. Pure: no side effects, no stock movement. The invariants:
// every selected option belongs to the target, and at most one selection per
// option group.
//
// price = (base + Σ extra) × quantity. The delivery fee rides separately so
// cart checkout can bundle it across sellers.
func BuildDraft(target domain.OrderTarget, optionItemIDs []int64, quantity int32) (*domain.OrderDraft, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	options := map[int64]domain.OptionItem{}
	groupOf := map[int64]int64{}
	for _, group := range target.OptionGroups() {
		for _, opt := range group.Options {
			options[opt.ID] = opt
			groupOf[opt.ID] = group.ID
		}
	}

	var extra int64
	seenGroups := map[int64]bool{}
	for _, optionID := range optionItemIDs {
		opt, ok := options[optionID]
		if !ok {
			return nil, &domain.InvalidOptionError{OptionItemID: optionID, Reason: "option does not belong to the item"}
		}
		groupID := groupOf[optionID]
		if seenGroups[groupID] {
			return nil, &domain.InvalidOptionError{OptionItemID: optionID, Reason: "only one option per group may be selected"}
		}
		seenGroups[groupID] = true
		extra += opt.ExtraPrice
	}

	return &domain.OrderDraft{
		Target:        target,
		Quantity:      quantity,
		OptionItemIDs: optionItemIDs,
		Price:         (target.BasePrice() + extra) * int64(quantity),
		DeliveryFee:   target.DeliveryFee(),
	}, nil
}
