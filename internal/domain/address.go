package domain

type Address struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	ZipCode   string `json:"zip_code"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2"`
	IsDefault bool   `json:"is_default"`
}

// AddressRef selects the delivery address for a checkout: an existing address
// by id, an ad-hoc new address, or (when both are empty) the buyer's default.
type AddressRef struct {
	AddressID int64    `json:"address_id"`
	New       *Address `json:"new_address"`
}
