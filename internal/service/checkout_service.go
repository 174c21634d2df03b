package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/events"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/repository"
)

// CheckoutService sequences order building, stock reservation and receipt
// materialization inside one relational transaction.
type CheckoutService struct {
	db        repository.Pool
	items     ItemStore
	stock     StockLedger
	receipts  ReceiptStore
	orders    OrderStore
	carts     CartStore
	addresses AddressStore
	producer  *events.Producer
	logger    *zap.Logger
}

func NewCheckoutService(
	db repository.Pool,
	items ItemStore,
	stock StockLedger,
	receipts ReceiptStore,
	orders OrderStore,
	carts CartStore,
	addresses AddressStore,
	producer *events.Producer,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:        db,
		items:     items,
		stock:     stock,
		receipts:  receipts,
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		producer:  producer,
		logger:    logger,
	}
}

// OrderSheet is the price preview shown before the client pays. The merchant
// uid generated here is what the client hands to the payment provider.
type OrderSheet struct {
	MerchantUID string `json:"merchant_uid"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	DeliveryFee int64  `json:"delivery_fee"`
	TotalAmount int64  `json:"total_amount"`
}

func (s *CheckoutService) Sheet(ctx context.Context, itemID int64, optionItemIDs []int64, quantity int32) (*OrderSheet, error) {
	target, err := s.items.FindTarget(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	draft, err := BuildDraft(target, optionItemIDs, quantity)
	if err != nil {
		return nil, err
	}
	merchantUID, err := s.receipts.GenerateMerchantUID(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return &OrderSheet{
		MerchantUID: merchantUID,
		Title:       target.Title(),
		Price:       draft.Price,
		DeliveryFee: draft.DeliveryFee,
		TotalAmount: draft.Price + draft.DeliveryFee,
	}, nil
}

type CheckoutInput struct {
	BuyerID       int64
	ItemID        int64
	OptionItemIDs []int64
	Quantity      int32
	MerchantUID   string
	Address       domain.AddressRef
}

type CheckoutResult struct {
	OrderIDs []int64         `json:"order_ids"`
	Receipt  *domain.Receipt `json:"receipt"`
}

// Checkout places a single-item order. Validation, stock reservation,
// receipt find-or-create, order insert and cart cleanup either all commit or
// all roll back.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput, requestID string) (*CheckoutResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	target, err := s.items.FindTarget(ctx, tx, in.ItemID)
	if err != nil {
		return nil, err
	}
	draft, err := BuildDraft(target, in.OptionItemIDs, in.Quantity)
	if err != nil {
		return nil, err
	}

	for _, optionID := range draft.OptionItemIDs {
		if err := s.stock.Reserve(ctx, tx, optionID, draft.Quantity); err != nil {
			return nil, err
		}
	}

	addressID, err := s.addresses.Resolve(ctx, tx, in.BuyerID, in.Address)
	if err != nil {
		return nil, err
	}

	total := draft.Price + draft.DeliveryFee
	receipt, err := s.receipts.FindOrCreate(ctx, tx, in.MerchantUID, total)
	if err != nil {
		return nil, err
	}

	orderID, err := s.orders.Insert(ctx, tx, &domain.Order{
		ReceiptID:   receipt.ID,
		BuyerID:     in.BuyerID,
		SellerID:    target.OwnerID(),
		ItemID:      target.ID(),
		Kind:        target.Kind,
		Quantity:    draft.Quantity,
		Price:       draft.Price,
		DeliveryFee: draft.DeliveryFee,
		Status:      domain.OrderStatusPending,
		AddressID:   addressID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.orders.InsertOptions(ctx, tx, orderID, draft.OptionItemIDs); err != nil {
		return nil, err
	}

	if err := s.carts.DeleteByBuyerItem(ctx, tx, in.BuyerID, in.ItemID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("merchant_uid", receipt.MerchantUID),
		zap.Int64("order_id", orderID),
		zap.Int64("total_amount", total))

	s.publishOrderCreated(receipt, []int64{orderID}, in.BuyerID, requestID)

	return &CheckoutResult{OrderIDs: []int64{orderID}, Receipt: receipt}, nil
}

type CartCheckoutInput struct {
	BuyerID     int64
	MerchantUID string
	Address     domain.AddressRef
}

// CheckoutCart places orders for every cart line of the buyer under one
// shared receipt. Lines are grouped by seller; the delivery fee applied to
// the whole batch is the maximum fee across sellers (bundled shipping), not
// the sum, and it is charged exactly once.
func (s *CheckoutService) CheckoutCart(ctx context.Context, in CartCheckoutInput, requestID string) (*CheckoutResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cart checkout: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lines, err := s.carts.ListByBuyer(ctx, tx, in.BuyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	type draftLine struct {
		line  domain.CartLine
		draft *domain.OrderDraft
	}

	targets := map[int64]domain.OrderTarget{}
	var drafts []draftLine
	var itemTotal int64
	var bundledFee int64
	feeSeller := int64(0)

	for _, line := range lines {
		target, ok := targets[line.ItemID]
		if !ok {
			target, err = s.items.FindTarget(ctx, tx, line.ItemID)
			if err != nil {
				return nil, err
			}
			targets[line.ItemID] = target
		}

		draft, err := BuildDraft(target, line.OptionItemIDs, line.Quantity)
		if err != nil {
			return nil, err
		}
		for _, optionID := range draft.OptionItemIDs {
			if err := s.stock.Reserve(ctx, tx, optionID, draft.Quantity); err != nil {
				return nil, err
			}
		}

		drafts = append(drafts, draftLine{line: line, draft: draft})
		itemTotal += draft.Price
		if draft.DeliveryFee > bundledFee {
			bundledFee = draft.DeliveryFee
			feeSeller = target.OwnerID()
		}
	}

	addressID, err := s.addresses.Resolve(ctx, tx, in.BuyerID, in.Address)
	if err != nil {
		return nil, err
	}

	total := itemTotal + bundledFee
	receipt, err := s.receipts.FindOrCreate(ctx, tx, in.MerchantUID, total)
	if err != nil {
		return nil, err
	}

	var orderIDs []int64
	var cartIDs []int64
	feeCharged := false
	for _, d := range drafts {
		fee := int64(0)
		if !feeCharged && d.draft.Target.OwnerID() == feeSeller {
			fee = bundledFee
			feeCharged = true
		}
		orderID, err := s.orders.Insert(ctx, tx, &domain.Order{
			ReceiptID:   receipt.ID,
			BuyerID:     in.BuyerID,
			SellerID:    d.draft.Target.OwnerID(),
			ItemID:      d.draft.Target.ID(),
			Kind:        d.draft.Target.Kind,
			Quantity:    d.draft.Quantity,
			Price:       d.draft.Price,
			DeliveryFee: fee,
			Status:      domain.OrderStatusPending,
			AddressID:   addressID,
		})
		if err != nil {
			return nil, err
		}
		if err := s.orders.InsertOptions(ctx, tx, orderID, d.draft.OptionItemIDs); err != nil {
			return nil, err
		}
		orderIDs = append(orderIDs, orderID)
		cartIDs = append(cartIDs, d.line.ID)
	}

	if err := s.carts.Delete(ctx, tx, cartIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cart checkout: %w", err)
	}

	s.logger.Info("Cart orders created",
		zap.String("merchant_uid", receipt.MerchantUID),
		zap.Int("orders", len(orderIDs)),
		zap.Int64("total_amount", total))

	s.publishOrderCreated(receipt, orderIDs, in.BuyerID, requestID)

	return &CheckoutResult{OrderIDs: orderIDs, Receipt: receipt}, nil
}

func (s *CheckoutService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.orders.FindByID(ctx, s.db, orderID)
}

// 이벤트 발행 실패는 주문을 되돌릴 이유가 아니므로 로그만 남긴다.
func (s *CheckoutService) publishOrderCreated(receipt *domain.Receipt, orderIDs []int64, buyerID int64, requestID string) {
	if s.producer == nil {
		return
	}
	_ = s.producer.PublishOrderCreated(events.OrderCreatedEvent{
		EventID:     uuid.New().String(),
		ReceiptID:   receipt.ID,
		MerchantUID: receipt.MerchantUID,
		OrderIDs:    orderIDs,
		BuyerID:     buyerID,
		TotalAmount: receipt.TotalAmount,
		Timestamp:   time.Now(),
		RequestID:   requestID,
	})
}
