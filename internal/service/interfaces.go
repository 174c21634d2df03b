package service

import (
	"context"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/gateway"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/repository"
)

// Store interfaces mirror the pgx repositories. Every method takes the DB
// handle explicitly so a call either joins the caller's transaction or runs
// against the pool; nothing is ambient.

type ItemStore interface {
	FindTarget(ctx context.Context, db repository.DB, itemID int64) (domain.OrderTarget, error)
}

type StockLedger interface {
	Reserve(ctx context.Context, db repository.DB, optionItemID int64, qty int32) error
	Restore(ctx context.Context, db repository.DB, optionItemID int64, qty int32) error
}

type ReceiptStore interface {
	FindByMerchantUID(ctx context.Context, db repository.DB, merchantUID string) (*domain.Receipt, error)
	FindOrCreate(ctx context.Context, db repository.DB, merchantUID string, totalAmount int64) (*domain.Receipt, error)
	EnsureExists(ctx context.Context, db repository.DB, merchantUID string, totalAmount int64) (*domain.Receipt, error)
	GenerateMerchantUID(ctx context.Context, db repository.DB) (string, error)
	MarkPaid(ctx context.Context, db repository.DB, receiptID int64, method, gateway string, transaction []byte) error
	MarkCancelled(ctx context.Context, db repository.DB, receiptID int64) error
}

type OrderStore interface {
	Insert(ctx context.Context, db repository.DB, o *domain.Order) (int64, error)
	InsertOptions(ctx context.Context, db repository.DB, orderID int64, optionItemIDs []int64) error
	FindByID(ctx context.Context, db repository.DB, id int64) (*domain.Order, error)
	ListByReceipt(ctx context.Context, db repository.DB, receiptID int64) ([]domain.Order, error)
	ListOptionItemIDs(ctx context.Context, db repository.DB, orderID int64) ([]int64, error)
	UpdateStatusByReceipt(ctx context.Context, db repository.DB, receiptID int64, status domain.OrderStatus) error
}

type CartStore interface {
	ListByBuyer(ctx context.Context, db repository.DB, buyerID int64) ([]domain.CartLine, error)
	DeleteByBuyerItem(ctx context.Context, db repository.DB, buyerID, itemID int64) error
	Delete(ctx context.Context, db repository.DB, cartIDs []int64) error
}

type AddressStore interface {
	Resolve(ctx context.Context, db repository.DB, userID int64, ref domain.AddressRef) (int64, error)
}

// TransactionFetcher is the payment gateway boundary.
type TransactionFetcher interface {
	FetchTransaction(ctx context.Context, transactionID string) (gateway.TransactionInfo, error)
}
