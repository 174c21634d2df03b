package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrAddressNotFound = errors.New("delivery address not found")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrOrderNotYetCreated: 검증이 주문 생성보다 먼저 도착한 경우.
	ErrOrderNotYetCreated = errors.New("orders not yet created for receipt")
	// ErrInvalidOrderState: 영수증 아래 주문 상태가 균일하지 않아 검증할 수 없는 경우.
	ErrInvalidOrderState   = errors.New("orders are in a mixed state")
	ErrPaymentNotCompleted = errors.New("payment is not completed")
)

// InvalidOptionError reports a selection that does not fit the target item:
// a foreign option or two selections from the same group.
type InvalidOptionError struct {
	OptionItemID int64
	Reason       string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %d: %s", e.OptionItemID, e.Reason)
}

// InsufficientStockError names the option that could not be reserved.
type InsufficientStockError struct {
	OptionItemID int64
	OptionName   string
	Remaining    int32
	Requested    int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for option %q (%d): %d left, %d requested",
		e.OptionName, e.OptionItemID, e.Remaining, e.Requested)
}

// PaymentLookupError wraps a gateway lookup that failed terminally, either by
// exhausting retries or by a non-retryable provider response.
type PaymentLookupError struct {
	TransactionID string
	Err           error
}

func (e *PaymentLookupError) Error() string {
	return fmt.Sprintf("payment lookup failed for transaction %s: %v", e.TransactionID, e.Err)
}

func (e *PaymentLookupError) Unwrap() error { return e.Err }

type PaymentAmountMismatchError struct {
	Expected int64
	Actual   int64
}

func (e *PaymentAmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount mismatch: expected %d, provider reported %d", e.Expected, e.Actual)
}

type PaymentReferenceMismatchError struct {
	Expected string
	Actual   string
}

func (e *PaymentReferenceMismatchError) Error() string {
	return fmt.Sprintf("payment reference mismatch: expected %s, provider reported %s", e.Expected, e.Actual)
}

// SettlementError marks unclassified failures inside the reconciliation flow.
type SettlementError struct {
	Op  string
	Err error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement %s: %v", e.Op, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }
