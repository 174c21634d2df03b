package domain

// CartLine is one (item, selected options, quantity) tuple consumed by cart
// checkout. Read from the cart collaborator, deleted once ordered.
type CartLine struct {
	ID            int64
	BuyerID       int64
	ItemID        int64
	Quantity      int32
	OptionItemIDs []int64
}
