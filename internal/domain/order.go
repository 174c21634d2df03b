package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order는 영수증 아래의 판매자 단위 주문 한 건이다.
// 상태는 정산 엔진만 변경한다.
type Order struct {
	ID          int64       `json:"id"`
	ReceiptID   int64       `json:"receipt_id"`
	BuyerID     int64       `json:"buyer_id"`
	SellerID    int64       `json:"seller_id"`
	ItemID      int64       `json:"item_id"`
	Kind        TargetKind  `json:"target_kind"`
	Quantity    int32       `json:"quantity"`
	Price       int64       `json:"price"`
	DeliveryFee int64       `json:"delivery_fee"`
	Status      OrderStatus `json:"status"`
	AddressID   int64       `json:"address_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderOption joins an order to one selected option item. Immutable once
// created.
type OrderOption struct {
	OrderID      int64 `json:"order_id"`
	OptionItemID int64 `json:"option_item_id"`
}

// OrderDraft is the priced, validated shape of an order before anything is
// persisted. Stock is not reserved yet; the orchestrator does that at commit
// time.
type OrderDraft struct {
	Target        OrderTarget
	Quantity      int32
	OptionItemIDs []int64
	Price         int64
	DeliveryFee   int64
}
