package events

import (
	"time"
)

type OrderCreatedEvent struct {
	EventID     string    `json:"event_id"`
	ReceiptID   int64     `json:"receipt_id"`
	MerchantUID string    `json:"merchant_uid"`
	OrderIDs    []int64   `json:"order_ids"`
	BuyerID     int64     `json:"buyer_id"`
	TotalAmount int64     `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
}

type PaymentSettledEvent struct {
	EventID       string    `json:"event_id"`
	ReceiptID     int64     `json:"receipt_id"`
	MerchantUID   string    `json:"merchant_uid"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

type PaymentCancelledEvent struct {
	EventID     string    `json:"event_id"`
	ReceiptID   int64     `json:"receipt_id"`
	MerchantUID string    `json:"merchant_uid"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}
