package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estia-crm/matchmaking/internal/models"
)

// ClientRepository handles data access for client records
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new client repository
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

const clientColumns = `id, tenant_id, full_name, intent, purpose, status,
	       budget_min, budget_max, areas_of_interest, property_preferences, created_at`

func scanClient(row pgx.Row) (*models.ClientForMatching, error) {
	client := &models.ClientForMatching{}
	var areas, prefs []byte
	err := row.Scan(
		&client.ID,
		&client.TenantID,
		&client.FullName,
		&client.Intent,
		&client.Purpose,
		&client.Status,
		&client.BudgetMin,
		&client.BudgetMax,
		&areas,
		&prefs,
		&client.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(areas) > 0 {
		var decoded any
		if err := json.Unmarshal(areas, &decoded); err != nil {
			// Legacy rows may hold a bare comma-separated string.
			decoded = string(areas)
		}
		client.AreasOfInterest = decoded
	}
	if len(prefs) > 0 {
		client.Preferences = &models.ClientPropertyPreferences{}
		if err := json.Unmarshal(prefs, client.Preferences); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// GetByID retrieves a client by ID, scoped to the tenant
func (r *ClientRepository) GetByID(ctx context.Context, tenantID uuid.UUID, clientID string) (*models.ClientForMatching, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE id = $1 AND tenant_id = $2
	`

	client, err := scanClient(r.pool.QueryRow(ctx, query, clientID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return client, nil
}

// ListActive retrieves every active client for the tenant, for a matching run
func (r *ClientRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]models.ClientForMatching, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE tenant_id = $1 AND status = 'ACTIVE'
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.ClientForMatching
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *client)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return clients, nil
}

// List retrieves a page of clients for the tenant along with the total count
func (r *ClientRepository) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]models.ClientForMatching, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM clients
		WHERE tenant_id = $1
	`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []models.ClientForMatching
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *client)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}
