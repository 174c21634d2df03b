package handler

import (
	"errors"
	"net/http"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

// statusOf maps the settlement error taxonomy to HTTP statuses. Anything
// unclassified is a 500.
func statusOf(err error) int {
	var invalidOption *domain.InvalidOptionError
	var insufficient *domain.InsufficientStockError
	var lookup *domain.PaymentLookupError
	var amountMismatch *domain.PaymentAmountMismatchError
	var refMismatch *domain.PaymentReferenceMismatchError

	switch {
	case errors.As(err, &invalidOption), errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.As(err, &insufficient), errors.Is(err, domain.ErrInvalidOrderState):
		return http.StatusConflict
	case errors.As(err, &amountMismatch), errors.As(err, &refMismatch):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReceiptNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrAddressNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOrderNotYetCreated):
		// 주문 생성이 아직 안 끝났을 뿐이므로 클라이언트는 재시도하면 된다.
		return http.StatusAccepted
	case errors.Is(err, domain.ErrPaymentNotCompleted):
		return http.StatusPaymentRequired
	case errors.As(err, &lookup):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// outcomeOf labels a result for metrics.
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case statusOf(err) == http.StatusBadRequest:
		return "invalid_request"
	default:
		return "error"
	}
}
