package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/events"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/gateway"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/repository"
)

// SettlementService reconciles a receipt against the provider's record of the
// transaction and drives its orders to a terminal state: PAID when the
// provider report matches, CANCELLED (with stock restored) when it doesn't.
type SettlementService struct {
	db          repository.Pool
	gateway     TransactionFetcher
	receipts    ReceiptStore
	orders      OrderStore
	stock       StockLedger
	producer    *events.Producer
	gatewayName string
	logger      *zap.Logger
}

func NewSettlementService(
	db repository.Pool,
	fetcher TransactionFetcher,
	receipts ReceiptStore,
	orders OrderStore,
	stock StockLedger,
	producer *events.Producer,
	gatewayName string,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		db:          db,
		gateway:     fetcher,
		receipts:    receipts,
		orders:      orders,
		stock:       stock,
		producer:    producer,
		gatewayName: gatewayName,
		logger:      logger,
	}
}

type VerifyInput struct {
	TransactionID string
	MerchantUID   string
}

// Verify is the client-facing entry point: failures come back as typed
// errors so the caller can act on them.
func (s *SettlementService) Verify(ctx context.Context, in VerifyInput) (*domain.Receipt, error) {
	return s.verify(ctx, in)
}

// HandleWebhook is the provider-facing entry point. Webhooks are delivered
// at least once and the provider retries on non-2xx, so the HTTP layer always
// answers 200 regardless; the returned error exists only so failures show up
// in logs and metrics.
func (s *SettlementService) HandleWebhook(ctx context.Context, in VerifyInput) error {
	_, err := s.receipts.FindByMerchantUID(ctx, s.db, in.MerchantUID)
	if errors.Is(err, domain.ErrReceiptNotFound) {
		// 영수증이 아직 없으면 제공사 기록 기준으로 선생성한다. insert-only:
		// 주문 생성 쪽과 경합하면 그쪽이 계산한 총액이 남는다.
		info, ferr := s.gateway.FetchTransaction(ctx, in.TransactionID)
		if ferr != nil {
			s.logWebhookFailure(in, ferr)
			return ferr
		}
		if _, cerr := s.receipts.EnsureExists(ctx, s.db, in.MerchantUID, info.Amount); cerr != nil {
			s.logWebhookFailure(in, cerr)
			return cerr
		}
	} else if err != nil {
		s.logWebhookFailure(in, err)
		return err
	}

	if _, err := s.verify(ctx, in); err != nil {
		s.logWebhookFailure(in, err)
		return err
	}
	return nil
}

func (s *SettlementService) logWebhookFailure(in VerifyInput, err error) {
	s.logger.Warn("Webhook reconciliation failed",
		zap.String("merchant_uid", in.MerchantUID),
		zap.String("tx_id", in.TransactionID),
		zap.Error(err))
}

func (s *SettlementService) verify(ctx context.Context, in VerifyInput) (*domain.Receipt, error) {
	receipt, err := s.receipts.FindByMerchantUID(ctx, s.db, in.MerchantUID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByReceipt(ctx, s.db, receipt.ID)
	if err != nil {
		return nil, &domain.SettlementError{Op: "list orders", Err: err}
	}

	// 검증이 주문 생성보다 먼저 도착한 경합: 제공사 기록이 기대값과 맞으면
	// 영수증만 paid로 올려 둔다(뒤집을 주문이 아직 없다).
	if len(orders) == 0 {
		info, err := s.gateway.FetchTransaction(ctx, in.TransactionID)
		if err != nil {
			return nil, err
		}
		if info.Status == gateway.StatusPaid &&
			info.Amount == receipt.TotalAmount &&
			info.MerchantUID == receipt.MerchantUID {
			if err := s.markReceiptPaid(ctx, s.db, receipt, info); err != nil {
				return nil, err
			}
			return receipt, nil
		}
		return nil, domain.ErrOrderNotYetCreated
	}

	// 이미 전부 PAID면 반복 검증/웹훅은 그대로 성공한다.
	if allOrders(orders, domain.OrderStatusPaid) {
		return receipt, nil
	}
	if !allOrders(orders, domain.OrderStatusPending) {
		return nil, domain.ErrInvalidOrderState
	}

	// 게이트웨이 조회는 상태 변경 트랜잭션을 열기 전에 한다. 재시도/백오프
	// 동안 락을 잡고 있지 않기 위해서다.
	info, err := s.gateway.FetchTransaction(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}

	if info.Status != gateway.StatusPaid {
		s.cancelReceipt(ctx, receipt, orders, "payment not completed")
		return nil, domain.ErrPaymentNotCompleted
	}
	if info.Amount != receipt.TotalAmount {
		s.cancelReceipt(ctx, receipt, orders, "amount mismatch")
		return nil, &domain.PaymentAmountMismatchError{Expected: receipt.TotalAmount, Actual: info.Amount}
	}
	if info.MerchantUID != receipt.MerchantUID {
		s.cancelReceipt(ctx, receipt, orders, "reference mismatch")
		return nil, &domain.PaymentReferenceMismatchError{Expected: receipt.MerchantUID, Actual: info.MerchantUID}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, &domain.SettlementError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.UpdateStatusByReceipt(ctx, tx, receipt.ID, domain.OrderStatusPaid); err != nil {
		return nil, &domain.SettlementError{Op: "mark orders paid", Err: err}
	}
	if err := s.markReceiptPaid(ctx, tx, receipt, info); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &domain.SettlementError{Op: "commit", Err: err}
	}

	s.logger.Info("Payment settled",
		zap.String("merchant_uid", receipt.MerchantUID),
		zap.String("tx_id", in.TransactionID),
		zap.Int64("amount", info.Amount))

	if s.producer != nil {
		_ = s.producer.PublishPaymentSettled(events.PaymentSettledEvent{
			EventID:       uuid.New().String(),
			ReceiptID:     receipt.ID,
			MerchantUID:   receipt.MerchantUID,
			TransactionID: in.TransactionID,
			Amount:        info.Amount,
			Timestamp:     time.Now(),
		})
	}
	return receipt, nil
}

func (s *SettlementService) markReceiptPaid(ctx context.Context, db repository.DB, receipt *domain.Receipt, info gateway.TransactionInfo) error {
	gatewayName := info.Provider
	if gatewayName == "" {
		gatewayName = s.gatewayName
	}
	detail, err := json.Marshal(info)
	if err != nil {
		return &domain.SettlementError{Op: "serialize transaction", Err: err}
	}
	if err := s.receipts.MarkPaid(ctx, db, receipt.ID, info.PayMethod, gatewayName, detail); err != nil {
		return &domain.SettlementError{Op: "mark receipt paid", Err: err}
	}
	receipt.PaymentStatus = domain.PaymentStatusPaid
	receipt.PaymentMethod = info.PayMethod
	receipt.PaymentGateway = gatewayName
	receipt.Transaction = detail
	return nil
}

// cancelReceipt restores every order's reserved stock and drives the receipt
// to cancelled, in its own transaction. It runs from paths that cannot
// propagate errors usefully (webhook handlers), so persistence failures are
// logged, never returned.
func (s *SettlementService) cancelReceipt(ctx context.Context, receipt *domain.Receipt, orders []domain.Order, reason string) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logCancelFailure(receipt, fmt.Errorf("begin: %w", err))
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, o := range orders {
		optionIDs, err := s.orders.ListOptionItemIDs(ctx, tx, o.ID)
		if err != nil {
			s.logCancelFailure(receipt, err)
			return
		}
		for _, optionID := range optionIDs {
			if err := s.stock.Restore(ctx, tx, optionID, o.Quantity); err != nil {
				s.logCancelFailure(receipt, err)
				return
			}
		}
	}

	if err := s.orders.UpdateStatusByReceipt(ctx, tx, receipt.ID, domain.OrderStatusCancelled); err != nil {
		s.logCancelFailure(receipt, err)
		return
	}
	if err := s.receipts.MarkCancelled(ctx, tx, receipt.ID); err != nil {
		s.logCancelFailure(receipt, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		s.logCancelFailure(receipt, err)
		return
	}
	receipt.PaymentStatus = domain.PaymentStatusCancelled

	s.logger.Info("Receipt cancelled",
		zap.String("merchant_uid", receipt.MerchantUID),
		zap.String("reason", reason))

	if s.producer != nil {
		_ = s.producer.PublishPaymentCancelled(events.PaymentCancelledEvent{
			EventID:     uuid.New().String(),
			ReceiptID:   receipt.ID,
			MerchantUID: receipt.MerchantUID,
			Reason:      reason,
			Timestamp:   time.Now(),
		})
	}
}

func (s *SettlementService) logCancelFailure(receipt *domain.Receipt, err error) {
	s.logger.Error("Receipt cancellation failed",
		zap.String("merchant_uid", receipt.MerchantUID),
		zap.Error(err))
}

func allOrders(orders []domain.Order, status domain.OrderStatus) bool {
	for _, o := range orders {
		if o.Status != status {
			return false
		}
	}
	return true
}
