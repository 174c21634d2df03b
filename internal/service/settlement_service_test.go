package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/gateway"
)

type settlementFixture struct {
	pool     *fakePool
	gateway  *fakeGateway
	receipts *fakeReceiptStore
	orders   *fakeOrderStore
	stock    *fakeStock
	svc      *SettlementService
}

func newSettlementFixture() *settlementFixture {
	f := &settlementFixture{
		pool:     &fakePool{},
		gateway:  &fakeGateway{},
		receipts: newFakeReceiptStore(),
		orders:   newFakeOrderStore(),
		stock:    newFakeStock(),
	}
	f.svc = NewSettlementService(f.pool, f.gateway, f.receipts, f.orders, f.stock,
		nil, "iamport", zap.NewNop())
	return f
}

// seedReceipt creates a pending receipt with one pending order holding the
// given options.
func (f *settlementFixture) seedReceipt(uid string, total int64, qty int32, optionIDs ...int64) *domain.Receipt {
	rc, _ := f.receipts.FindOrCreate(context.Background(), nil, uid, total)
	orderID, _ := f.orders.Insert(context.Background(), nil, &domain.Order{
		ReceiptID: rc.ID,
		BuyerID:   42,
		SellerID:  10,
		Quantity:  qty,
		Price:     total,
		Status:    domain.OrderStatusPending,
	})
	_ = f.orders.InsertOptions(context.Background(), nil, orderID, optionIDs)
	return rc
}

func paidInfo(amount int64, uid string) gateway.TransactionInfo {
	return gateway.TransactionInfo{
		Status:      gateway.StatusPaid,
		Amount:      amount,
		MerchantUID: uid,
		CardName:    "Shinhan",
		CardNumber:  "1234-****",
		PayMethod:   "card",
		Provider:    "kcp",
	}
}

func TestVerifySettlesMatchingPayment(t *testing.T) {
	f := newSettlementFixture()
	f.seedReceipt("m-1", 110000, 2, 1002)
	f.gateway.info = paidInfo(110000, "m-1")

	receipt, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_1", MerchantUID: "m-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("receipt status = %s, want paid", receipt.PaymentStatus)
	}
	if receipt.PaymentMethod != "card" || receipt.PaymentGateway != "kcp" {
		t.Errorf("method/gateway = %s/%s", receipt.PaymentMethod, receipt.PaymentGateway)
	}
	if len(receipt.Transaction) == 0 {
		t.Error("transaction detail was not recorded")
	}
	orders, _ := f.orders.ListByReceipt(context.Background(), nil, receipt.ID)
	for _, o := range orders {
		if o.Status != domain.OrderStatusPaid {
			t.Errorf("order %d status = %s, want PAID", o.ID, o.Status)
		}
	}
	if tx := f.pool.lastTx(); tx == nil || !tx.committed {
		t.Error("settlement did not commit")
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := newSettlementFixture()
	f.seedReceipt("m-2", 50000, 1, 1001)
	f.gateway.info = paidInfo(50000, "m-2")

	if _, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_2", MerchantUID: "m-2"}); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	receipt, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_2", MerchantUID: "m-2"})
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if receipt.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("receipt status = %s, want paid", receipt.PaymentStatus)
	}
	// 두 번째 호출은 게이트웨이 재조회 없이 단락되고, 결제 반영도 한 번만 일어난다.
	if f.gateway.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", f.gateway.calls)
	}
	if f.receipts.markPaidCalls != 1 {
		t.Errorf("mark paid calls = %d, want 1", f.receipts.markPaidCalls)
	}
	if len(f.stock.restored) != 0 {
		t.Errorf("stock must not move on repeat verification: %v", f.stock.restored)
	}
}

func TestVerifyAmountMismatchCancelsAndRestoresStock(t *testing.T) {
	f := newSettlementFixture()
	f.stock.counts[1002] = 1 // two units already reserved at checkout
	rc := f.seedReceipt("m-3", 53000, 2, 1002)
	f.gateway.info = paidInfo(50000, "m-3")

	_, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_3", MerchantUID: "m-3"})
	var mismatch *domain.PaymentAmountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want PaymentAmountMismatchError", err)
	}
	if mismatch.Expected != 53000 || mismatch.Actual != 50000 {
		t.Errorf("mismatch = (%d, %d), want (53000, 50000)", mismatch.Expected, mismatch.Actual)
	}
	if rc.PaymentStatus != domain.PaymentStatusCancelled {
		t.Errorf("receipt status = %s, want cancelled", rc.PaymentStatus)
	}
	orders, _ := f.orders.ListByReceipt(context.Background(), nil, rc.ID)
	for _, o := range orders {
		if o.Status != domain.OrderStatusCancelled {
			t.Errorf("order %d status = %s, want CANCELLED", o.ID, o.Status)
		}
	}
	// 주문 수량만큼 재고가 복원된다.
	if f.stock.counts[1002] != 3 {
		t.Errorf("restored stock = %d, want 3", f.stock.counts[1002])
	}
}

func TestVerifyReferenceMismatchCancels(t *testing.T) {
	f := newSettlementFixture()
	rc := f.seedReceipt("m-4", 10000, 1, 1001)
	f.gateway.info = paidInfo(10000, "someone-else")

	_, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_4", MerchantUID: "m-4"})
	var mismatch *domain.PaymentReferenceMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want PaymentReferenceMismatchError", err)
	}
	if rc.PaymentStatus != domain.PaymentStatusCancelled {
		t.Errorf("receipt status = %s, want cancelled", rc.PaymentStatus)
	}
}

func TestVerifyUnpaidTransactionCancels(t *testing.T) {
	f := newSettlementFixture()
	rc := f.seedReceipt("m-5", 10000, 1, 1001)
	f.gateway.info = gateway.TransactionInfo{Status: "ready", Amount: 10000, MerchantUID: "m-5"}

	_, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_5", MerchantUID: "m-5"})
	if !errors.Is(err, domain.ErrPaymentNotCompleted) {
		t.Fatalf("got %v, want ErrPaymentNotCompleted", err)
	}
	if rc.PaymentStatus != domain.PaymentStatusCancelled {
		t.Errorf("receipt status = %s, want cancelled", rc.PaymentStatus)
	}
}

func TestVerifyBeforeOrderCreationMarksReceiptPaid(t *testing.T) {
	f := newSettlementFixture()
	rc, _ := f.receipts.FindOrCreate(context.Background(), nil, "m-6", 20000)
	f.gateway.info = paidInfo(20000, "m-6")

	receipt, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_6", MerchantUID: "m-6"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.PaymentStatus != domain.PaymentStatusPaid || rc.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("receipt status = %s, want paid", receipt.PaymentStatus)
	}
}

func TestVerifyBeforeOrderCreationMismatchReportsRace(t *testing.T) {
	f := newSettlementFixture()
	_, _ = f.receipts.FindOrCreate(context.Background(), nil, "m-7", 20000)
	f.gateway.info = paidInfo(15000, "m-7")

	_, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_7", MerchantUID: "m-7"})
	if !errors.Is(err, domain.ErrOrderNotYetCreated) {
		t.Fatalf("got %v, want ErrOrderNotYetCreated", err)
	}
	if f.receipts.markPaidCalls != 0 {
		t.Error("mismatched race must not mutate the receipt")
	}
}

func TestVerifyMixedOrderStateFails(t *testing.T) {
	f := newSettlementFixture()
	rc := f.seedReceipt("m-8", 30000, 1, 1001)
	_, _ = f.orders.Insert(context.Background(), nil, &domain.Order{
		ReceiptID: rc.ID, Status: domain.OrderStatusCancelled,
	})

	_, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_8", MerchantUID: "m-8"})
	if !errors.Is(err, domain.ErrInvalidOrderState) {
		t.Fatalf("got %v, want ErrInvalidOrderState", err)
	}
	if f.gateway.calls != 0 {
		t.Error("mixed state must fail before calling the gateway")
	}
}

func TestVerifyUnknownReceipt(t *testing.T) {
	f := newSettlementFixture()

	_, err := f.svc.Verify(context.Background(), VerifyInput{TransactionID: "imp_9", MerchantUID: "nope"})
	if !errors.Is(err, domain.ErrReceiptNotFound) {
		t.Fatalf("got %v, want ErrReceiptNotFound", err)
	}
}

func TestWebhookReportsFailureOutcome(t *testing.T) {
	// 웹훅 경로의 실패는 반환값(지표용)으로만 드러난다. HTTP 응답은 항상 200.
	t.Run("unknown receipt and gateway down", func(t *testing.T) {
		f := newSettlementFixture()
		f.gateway.err = &domain.PaymentLookupError{TransactionID: "imp_x", Err: errors.New("timeout")}
		err := f.svc.HandleWebhook(context.Background(), VerifyInput{TransactionID: "imp_x", MerchantUID: "ghost"})
		if err == nil {
			t.Error("lookup failure must surface in the outcome")
		}
	})

	t.Run("already settled receipt", func(t *testing.T) {
		f := newSettlementFixture()
		rc := f.seedReceipt("m-10", 10000, 1, 1001)
		_ = f.orders.UpdateStatusByReceipt(context.Background(), nil, rc.ID, domain.OrderStatusPaid)
		err := f.svc.HandleWebhook(context.Background(), VerifyInput{TransactionID: "imp_10", MerchantUID: "m-10"})
		if err != nil {
			t.Errorf("repeat webhook on a settled receipt is a success, got %v", err)
		}
		if f.gateway.calls != 0 {
			t.Error("settled receipt must short-circuit")
		}
	})

	t.Run("gateway failure mid-verification", func(t *testing.T) {
		f := newSettlementFixture()
		f.seedReceipt("m-11", 10000, 1, 1001)
		f.gateway.err = errors.New("connection reset")
		err := f.svc.HandleWebhook(context.Background(), VerifyInput{TransactionID: "imp_11", MerchantUID: "m-11"})
		if err == nil {
			t.Error("verification failure must surface in the outcome")
		}
	})
}

func TestWebhookCreatesReceiptSpeculatively(t *testing.T) {
	f := newSettlementFixture()
	f.gateway.info = paidInfo(25000, "m-12")

	if err := f.svc.HandleWebhook(context.Background(), VerifyInput{TransactionID: "imp_12", MerchantUID: "m-12"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rc, err := f.receipts.FindByMerchantUID(context.Background(), nil, "m-12")
	if err != nil {
		t.Fatalf("webhook did not materialize the receipt: %v", err)
	}
	// 주문이 아직 없으므로 영수증만 paid가 된다.
	if rc.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("receipt status = %s, want paid", rc.PaymentStatus)
	}
	if rc.TotalAmount != 25000 {
		t.Errorf("receipt total = %d, want provider-reported 25000", rc.TotalAmount)
	}
}
