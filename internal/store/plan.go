package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/cloudbyte/internal/model"
)

// PlanStore reads the hosting plan catalog. The catalog is seeded by
// migrations and never written by the portal.
type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

const planCols = `id, name, price_inr, features`

var planColumns = columnSet(planCols)

func scanPlan(scanner interface{ Scan(...any) error }) (*model.Plan, error) {
	var p model.Plan
	var features string
	if err := scanner.Scan(&p.ID, &p.Name, &p.PriceINR, &features); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("decode features of plan %s: %w", p.ID, err)
	}
	return &p, nil
}

// Select returns the plans matching q.
func (s *PlanStore) Select(ctx context.Context, q Query) ([]model.Plan, error) {
	stmt, args, err := q.build("hosting_plans", planCols, planColumns)
	if err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// List returns the whole catalog, cheapest first.
func (s *PlanStore) List(ctx context.Context) ([]model.Plan, error) {
	return s.Select(ctx, NewQuery().OrderBy("price_inr", false).OrderBy("id", false))
}

func (s *PlanStore) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	plans, err := s.Select(ctx, NewQuery().Eq("id", id).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}
