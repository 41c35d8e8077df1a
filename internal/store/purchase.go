package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/cloudbyte/internal/model"
)

// PurchaseStore is the purchase ledger. Rows are only ever inserted and read.
type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

const purchaseCols = `id, user_id, plan_id, plan_name, price_paid, purchased_at, expires_at, status`

var purchaseColumns = columnSet(purchaseCols)

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.Purchase, error) {
	var p model.Purchase
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.PlanID, &p.PlanName, &p.PricePaid,
		&p.PurchasedAt, &p.ExpiresAt, &p.Status,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts p and assigns its ID. No de-duplication is attempted.
func (s *PurchaseStore) Create(ctx context.Context, p *model.Purchase) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO purchases (`+purchaseCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.UserID, p.PlanID, p.PlanName, p.PricePaid,
		p.PurchasedAt.UTC(), p.ExpiresAt.UTC(), p.Status,
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	p.ID = id
	return nil
}

// Select returns the purchases matching q.
func (s *PurchaseStore) Select(ctx context.Context, q Query) ([]model.Purchase, error) {
	stmt, args, err := q.build("purchases", purchaseCols, purchaseColumns)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

// LatestActive returns the most recently purchased active row for userID,
// or nil if the user has none.
func (s *PurchaseStore) LatestActive(ctx context.Context, userID string) (*model.Purchase, error) {
	q := NewQuery().
		Eq("user_id", userID).
		Eq("status", model.PurchaseStatusActive).
		OrderBy("purchased_at", true).
		Limit(1)
	purchases, err := s.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("latest active purchase: %w", err)
	}
	if len(purchases) == 0 {
		return nil, nil
	}
	return &purchases[0], nil
}
