package domain

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Receipt는 merchant_uid로 식별되는 결제 단위 집계 레코드다. 판매자가 여러
// 명이면 하나의 Receipt 아래에 주문이 여러 건 달린다.
type Receipt struct {
	ID             int64           `json:"id"`
	MerchantUID    string          `json:"merchant_uid"`
	TotalAmount    int64           `json:"total_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentGateway string          `json:"payment_gateway"`
	Transaction    json.RawMessage `json:"transaction,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
