package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
)

const (
	uniqueViolation = "23505"

	merchantUIDAttempts = 5
	maxMerchantUID      = int64(1_000_000_000_000) // 12 digits
)

type ReceiptRepository struct{}

func NewReceiptRepository() *ReceiptRepository {
	return &ReceiptRepository{}
}

const receiptColumns = `id, merchant_uid, total_amount, payment_status, payment_method, payment_gateway, transaction, created_at`

func scanReceipt(row pgx.Row) (*domain.Receipt, error) {
	var rc domain.Receipt
	err := row.Scan(&rc.ID, &rc.MerchantUID, &rc.TotalAmount, &rc.PaymentStatus,
		&rc.PaymentMethod, &rc.PaymentGateway, &rc.Transaction, &rc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *ReceiptRepository) FindByMerchantUID(ctx context.Context, db DB, merchantUID string) (*domain.Receipt, error) {
	rc, err := scanReceipt(db.QueryRow(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE merchant_uid = $1`, merchantUID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	return rc, nil
}

// FindOrCreate materializes the receipt for a merchant uid. An existing
// receipt gets its total refreshed (the sheet may have been recomputed) but
// its payment status is never touched here. Checkout and the provider
// webhook can both race to create the same uid; a unique violation means the
// other path won, so re-fetch and continue.
func (r *ReceiptRepository) FindOrCreate(ctx context.Context, db DB, merchantUID string, totalAmount int64) (*domain.Receipt, error) {
	rc, err := r.FindByMerchantUID(ctx, db, merchantUID)
	if err == nil {
		if rc.TotalAmount != totalAmount {
			if _, err := db.Exec(ctx,
				`UPDATE receipts SET total_amount = $2 WHERE id = $1`, rc.ID, totalAmount); err != nil {
				return nil, fmt.Errorf("refresh receipt total: %w", err)
			}
			rc.TotalAmount = totalAmount
		}
		return rc, nil
	}
	if !errors.Is(err, domain.ErrReceiptNotFound) {
		return nil, err
	}

	rc, err = scanReceipt(db.QueryRow(ctx,
		`INSERT INTO receipts (merchant_uid, total_amount, payment_status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+receiptColumns, merchantUID, totalAmount))
	if err == nil {
		return rc, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// 동시 생성 경합: 상대가 먼저 넣었으니 다시 조회해서 그대로 쓴다.
		return r.FindOrCreate(ctx, db, merchantUID, totalAmount)
	}
	return nil, fmt.Errorf("create receipt: %w", err)
}

// EnsureExists inserts the receipt if missing and never rewrites an existing
// row. The webhook path uses this for speculative creation so only checkout
// ever decides the expected total; on conflict the existing row wins.
func (r *ReceiptRepository) EnsureExists(ctx context.Context, db DB, merchantUID string, totalAmount int64) (*domain.Receipt, error) {
	rc, err := scanReceipt(db.QueryRow(ctx,
		`INSERT INTO receipts (merchant_uid, total_amount, payment_status)
		 VALUES ($1, $2, 'pending')
		 ON CONFLICT (merchant_uid) DO NOTHING
		 RETURNING `+receiptColumns, merchantUID, totalAmount))
	if errors.Is(err, pgx.ErrNoRows) {
		// 충돌: 체크아웃 쪽이 먼저 넣었으니 그 행을 그대로 쓴다.
		return r.FindByMerchantUID(ctx, db, merchantUID)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure receipt: %w", err)
	}
	return rc, nil
}

// GenerateMerchantUID produces a fixed-length numeric uid, retrying on
// collision a bounded number of times before falling back to a
// timestamp-derived suffix. Collisions are rare but not impossible, so the
// existence check is load-bearing.
func (r *ReceiptRepository) GenerateMerchantUID(ctx context.Context, db DB) (string, error) {
	for i := 0; i < merchantUIDAttempts; i++ {
		uid := randomNumericUID()
		exists, err := r.merchantUIDExists(ctx, db, uid)
		if err != nil {
			return "", err
		}
		if !exists {
			return uid, nil
		}
	}
	// 전부 충돌하면 타임스탬프 기반으로 생성한다.
	return fmt.Sprintf("%012d", time.Now().UnixMilli()%maxMerchantUID), nil
}

func (r *ReceiptRepository) merchantUIDExists(ctx context.Context, db DB, uid string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM receipts WHERE merchant_uid = $1)`, uid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check merchant uid: %w", err)
	}
	return exists, nil
}

func randomNumericUID() string {
	return fmt.Sprintf("%012d", rand.Int63n(maxMerchantUID))
}

// MarkPaid settles the receipt and records what the provider reported.
func (r *ReceiptRepository) MarkPaid(ctx context.Context, db DB, receiptID int64, method, gateway string, transaction []byte) error {
	_, err := db.Exec(ctx,
		`UPDATE receipts
		 SET payment_status = 'paid', payment_method = $2, payment_gateway = $3, transaction = $4
		 WHERE id = $1`,
		receiptID, method, gateway, transaction)
	if err != nil {
		return fmt.Errorf("mark receipt paid: %w", err)
	}
	return nil
}

func (r *ReceiptRepository) MarkCancelled(ctx context.Context, db DB, receiptID int64) error {
	_, err := db.Exec(ctx,
		`UPDATE receipts SET payment_status = 'cancelled' WHERE id = $1`, receiptID)
	if err != nil {
		return fmt.Errorf("mark receipt cancelled: %w", err)
	}
	return nil
}
