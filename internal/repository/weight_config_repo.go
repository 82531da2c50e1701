package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WeightConfigRepository handles data access for tenant criterion weight overrides
type WeightConfigRepository struct {
	pool *pgxpool.Pool
}

// NewWeightConfigRepository creates a new weight config repository
func NewWeightConfigRepository(pool *pgxpool.Pool) *WeightConfigRepository {
	return &WeightConfigRepository{pool: pool}
}

// Get retrieves the tenant's weight overrides, or nil when the tenant has none
func (r *WeightConfigRepository) Get(ctx context.Context, tenantID uuid.UUID) (json.RawMessage, error) {
	query := `
		SELECT weights
		FROM tenant_weight_configs
		WHERE tenant_id = $1
	`

	var weights json.RawMessage
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(&weights)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return weights, nil
}

// Upsert stores the tenant's weight overrides, replacing any previous set
func (r *WeightConfigRepository) Upsert(ctx context.Context, tenantID uuid.UUID, weights json.RawMessage) error {
	query := `
		INSERT INTO tenant_weight_configs (tenant_id, weights, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			weights = EXCLUDED.weights,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, tenantID, weights)
	return err
}
