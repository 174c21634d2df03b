package service

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/gateway"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/repository"
)

// In-memory doubles for the pgx-backed stores. The fake stores ignore the DB
// handle; the fake pool/tx only records transaction boundaries.

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}
func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakePool struct {
	txs []*fakeTx
}

func (p *fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (p *fakePool) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (p *fakePool) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (p *fakePool) Begin(context.Context) (repository.Tx, error) {
	tx := &fakeTx{}
	p.txs = append(p.txs, tx)
	return tx, nil
}

func (p *fakePool) lastTx() *fakeTx {
	if len(p.txs) == 0 {
		return nil
	}
	return p.txs[len(p.txs)-1]
}

type fakeItemStore struct {
	targets map[int64]domain.OrderTarget
}

func (f *fakeItemStore) FindTarget(_ context.Context, _ repository.DB, itemID int64) (domain.OrderTarget, error) {
	target, ok := f.targets[itemID]
	if !ok {
		return domain.OrderTarget{}, domain.ErrItemNotFound
	}
	return target, nil
}

type stockCall struct {
	optionItemID int64
	qty          int32
}

type fakeStock struct {
	counts    map[int64]int32 // options absent from the map are unlimited
	unlimited map[int64]bool
	reserved  []stockCall
	restored  []stockCall
}

func newFakeStock() *fakeStock {
	return &fakeStock{counts: map[int64]int32{}, unlimited: map[int64]bool{}}
}

func (f *fakeStock) Reserve(_ context.Context, _ repository.DB, optionItemID int64, qty int32) error {
	if f.unlimited[optionItemID] {
		return nil
	}
	remaining, ok := f.counts[optionItemID]
	if !ok {
		return &domain.InvalidOptionError{OptionItemID: optionItemID, Reason: "option does not exist"}
	}
	if remaining < qty {
		return &domain.InsufficientStockError{OptionItemID: optionItemID, Remaining: remaining, Requested: qty}
	}
	f.counts[optionItemID] = remaining - qty
	f.reserved = append(f.reserved, stockCall{optionItemID, qty})
	return nil
}

func (f *fakeStock) Restore(_ context.Context, _ repository.DB, optionItemID int64, qty int32) error {
	if !f.unlimited[optionItemID] {
		f.counts[optionItemID] += qty
	}
	f.restored = append(f.restored, stockCall{optionItemID, qty})
	return nil
}

type fakeReceiptStore struct {
	byUID          map[string]*domain.Receipt
	nextID         int64
	generatedUID   string
	markPaidCalls  int
	createdByStore int
}

func newFakeReceiptStore() *fakeReceiptStore {
	return &fakeReceiptStore{byUID: map[string]*domain.Receipt{}, nextID: 1}
}

func (f *fakeReceiptStore) FindByMerchantUID(_ context.Context, _ repository.DB, uid string) (*domain.Receipt, error) {
	rc, ok := f.byUID[uid]
	if !ok {
		return nil, domain.ErrReceiptNotFound
	}
	return rc, nil
}

func (f *fakeReceiptStore) FindOrCreate(_ context.Context, _ repository.DB, uid string, total int64) (*domain.Receipt, error) {
	if rc, ok := f.byUID[uid]; ok {
		rc.TotalAmount = total
		return rc, nil
	}
	rc := &domain.Receipt{
		ID:            f.nextID,
		MerchantUID:   uid,
		TotalAmount:   total,
		PaymentStatus: domain.PaymentStatusPending,
	}
	f.nextID++
	f.createdByStore++
	f.byUID[uid] = rc
	return rc, nil
}

func (f *fakeReceiptStore) EnsureExists(ctx context.Context, db repository.DB, uid string, total int64) (*domain.Receipt, error) {
	// insert-only: 기존 행의 총액은 건드리지 않는다.
	if rc, ok := f.byUID[uid]; ok {
		return rc, nil
	}
	return f.FindOrCreate(ctx, db, uid, total)
}

func (f *fakeReceiptStore) GenerateMerchantUID(context.Context, repository.DB) (string, error) {
	return f.generatedUID, nil
}

func (f *fakeReceiptStore) MarkPaid(_ context.Context, _ repository.DB, receiptID int64, method, gatewayName string, transaction []byte) error {
	f.markPaidCalls++
	for _, rc := range f.byUID {
		if rc.ID == receiptID {
			rc.PaymentStatus = domain.PaymentStatusPaid
			rc.PaymentMethod = method
			rc.PaymentGateway = gatewayName
			rc.Transaction = transaction
		}
	}
	return nil
}

func (f *fakeReceiptStore) MarkCancelled(_ context.Context, _ repository.DB, receiptID int64) error {
	for _, rc := range f.byUID {
		if rc.ID == receiptID {
			rc.PaymentStatus = domain.PaymentStatusCancelled
		}
	}
	return nil
}

type fakeOrderStore struct {
	orders  map[int64]*domain.Order
	options map[int64][]int64
	nextID  int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[int64]*domain.Order{}, options: map[int64][]int64{}, nextID: 1}
}

func (f *fakeOrderStore) Insert(_ context.Context, _ repository.DB, o *domain.Order) (int64, error) {
	stored := *o
	stored.ID = f.nextID
	f.orders[stored.ID] = &stored
	f.nextID++
	return stored.ID, nil
}

func (f *fakeOrderStore) InsertOptions(_ context.Context, _ repository.DB, orderID int64, optionItemIDs []int64) error {
	f.options[orderID] = append([]int64(nil), optionItemIDs...)
	return nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, _ repository.DB, id int64) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) ListByReceipt(_ context.Context, _ repository.DB, receiptID int64) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.ReceiptID == receiptID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOrderStore) ListOptionItemIDs(_ context.Context, _ repository.DB, orderID int64) ([]int64, error) {
	return f.options[orderID], nil
}

func (f *fakeOrderStore) UpdateStatusByReceipt(_ context.Context, _ repository.DB, receiptID int64, status domain.OrderStatus) error {
	for _, o := range f.orders {
		if o.ReceiptID == receiptID {
			o.Status = status
		}
	}
	return nil
}

type fakeCartStore struct {
	lines      []domain.CartLine
	deletedIDs []int64
	cleared    bool
}

func (f *fakeCartStore) ListByBuyer(_ context.Context, _ repository.DB, buyerID int64) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for _, line := range f.lines {
		if line.BuyerID == buyerID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeCartStore) DeleteByBuyerItem(_ context.Context, _ repository.DB, buyerID, itemID int64) error {
	f.cleared = true
	return nil
}

func (f *fakeCartStore) Delete(_ context.Context, _ repository.DB, cartIDs []int64) error {
	f.deletedIDs = append(f.deletedIDs, cartIDs...)
	return nil
}

type fakeAddressStore struct {
	defaultID int64
}

func (f *fakeAddressStore) Resolve(_ context.Context, _ repository.DB, _ int64, ref domain.AddressRef) (int64, error) {
	switch {
	case ref.AddressID != 0:
		return ref.AddressID, nil
	case ref.New != nil:
		return 777, nil
	case f.defaultID != 0:
		return f.defaultID, nil
	default:
		return 0, domain.ErrAddressNotFound
	}
}

type fakeGateway struct {
	info  gateway.TransactionInfo
	err   error
	calls int
}

func (f *fakeGateway) FetchTransaction(context.Context, string) (gateway.TransactionInfo, error) {
	f.calls++
	if f.err != nil {
		return gateway.TransactionInfo{}, f.err
	}
	return f.info, nil
}
