package domain

// TargetKind discriminates what an order points at: a catalog item or an
// accepted reform proposal.
type TargetKind string

const (
	TargetKindItem   TargetKind = "ITEM"
	TargetKindReform TargetKind = "REFORM"
)

// Item is catalog data, read-only inside this engine.
type Item struct {
	ID           int64
	OwnerID      int64
	Title        string
	BasePrice    int64
	DeliveryFee  int64
	OptionGroups []OptionGroup
}

type OptionGroup struct {
	ID      int64
	ItemID  int64
	Name    string
	Options []OptionItem
}

// OptionItem의 Quantity가 nil이면 무제한 재고다.
type OptionItem struct {
	ID         int64
	GroupID    int64
	Name       string
	ExtraPrice int64
	Quantity   *int32
}

// ReformProposal is a custom-work agreement: a fixed agreed price, no option
// groups.
type ReformProposal struct {
	ID          int64
	OwnerID     int64
	Title       string
	AgreedPrice int64
	DeliveryFee int64
}

// OrderTarget is a tagged union over the order target kind. Exactly one of
// Item/Reform is set, matching Kind.
type OrderTarget struct {
	Kind   TargetKind
	Item   *Item
	Reform *ReformProposal
}

func ItemTarget(item *Item) OrderTarget {
	return OrderTarget{Kind: TargetKindItem, Item: item}
}

func ReformTarget(p *ReformProposal) OrderTarget {
	return OrderTarget{Kind: TargetKindReform, Reform: p}
}

// BasePrice is the kind-specific pricing source: list price for items, the
// agreed amount for reform proposals.
func (t OrderTarget) BasePrice() int64 {
	switch t.Kind {
	case TargetKindItem:
		return t.Item.BasePrice
	case TargetKindReform:
		return t.Reform.AgreedPrice
	}
	return 0
}

func (t OrderTarget) Title() string {
	switch t.Kind {
	case TargetKindItem:
		return t.Item.Title
	case TargetKindReform:
		return t.Reform.Title
	}
	return ""
}

func (t OrderTarget) OwnerID() int64 {
	switch t.Kind {
	case TargetKindItem:
		return t.Item.OwnerID
	case TargetKindReform:
		return t.Reform.OwnerID
	}
	return 0
}

func (t OrderTarget) DeliveryFee() int64 {
	switch t.Kind {
	case TargetKindItem:
		return t.Item.DeliveryFee
	case TargetKindReform:
		return t.Reform.DeliveryFee
	}
	return 0
}

// OptionGroups returns the selectable groups; reform proposals have none.
func (t OrderTarget) OptionGroups() []OptionGroup {
	if t.Kind == TargetKindItem {
		return t.Item.OptionGroups
	}
	return nil
}

func (t OrderTarget) ID() int64 {
	switch t.Kind {
	case TargetKindItem:
		return t.Item.ID
	case TargetKindReform:
		return t.Reform.ID
	}
	return 0
}
