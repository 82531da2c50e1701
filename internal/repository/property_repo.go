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

// PropertyRepository handles data access for property listings
type PropertyRepository struct {
	pool *pgxpool.Pool
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

const propertyColumns = `id, tenant_id, title, price, type, transaction_type, status,
	       area, city, municipality, state, bedrooms, bathrooms,
	       net_sqm, gross_sqm, square_feet, floor,
	       has_elevator, pets_allowed, has_parking,
	       furnished, heating, energy_class, condition, amenities, created_at`

func scanProperty(row pgx.Row) (*models.PropertyForMatching, error) {
	property := &models.PropertyForMatching{}
	var amenities []byte
	err := row.Scan(
		&property.ID,
		&property.TenantID,
		&property.Title,
		&property.Price,
		&property.Type,
		&property.TransactionType,
		&property.Status,
		&property.Area,
		&property.City,
		&property.Municipality,
		&property.State,
		&property.Bedrooms,
		&property.Bathrooms,
		&property.NetSqm,
		&property.GrossSqm,
		&property.SquareFeet,
		&property.Floor,
		&property.HasElevator,
		&property.PetsAllowed,
		&property.HasParking,
		&property.Furnished,
		&property.Heating,
		&property.EnergyClass,
		&property.Condition,
		&amenities,
		&property.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(amenities) > 0 {
		var decoded any
		if err := json.Unmarshal(amenities, &decoded); err != nil {
			return nil, err
		}
		property.Amenities = decoded
	}

	return property, nil
}

// BulkInsert performs a batch upsert of imported property listings
func (r *PropertyRepository) BulkInsert(ctx context.Context, properties []models.PropertyForMatching) error {
	if len(properties) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO properties (
			id, tenant_id, title, price, type, transaction_type, status,
			area, city, municipality, state, bedrooms, bathrooms,
			net_sqm, gross_sqm, square_feet, floor,
			has_elevator, pets_allowed, has_parking,
			furnished, heating, energy_class, condition, amenities, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			type = EXCLUDED.type,
			transaction_type = EXCLUDED.transaction_type,
			status = EXCLUDED.status,
			area = EXCLUDED.area,
			city = EXCLUDED.city,
			municipality = EXCLUDED.municipality,
			state = EXCLUDED.state,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			net_sqm = EXCLUDED.net_sqm,
			gross_sqm = EXCLUDED.gross_sqm,
			square_feet = EXCLUDED.square_feet,
			floor = EXCLUDED.floor,
			has_elevator = EXCLUDED.has_elevator,
			pets_allowed = EXCLUDED.pets_allowed,
			has_parking = EXCLUDED.has_parking,
			furnished = EXCLUDED.furnished,
			heating = EXCLUDED.heating,
			energy_class = EXCLUDED.energy_class,
			condition = EXCLUDED.condition,
			amenities = EXCLUDED.amenities,
			updated_at = NOW()
	`

	for _, p := range properties {
		var amenities []byte
		if p.Amenities != nil {
			encoded, err := json.Marshal(p.Amenities)
			if err != nil {
				return err
			}
			amenities = encoded
		}

		batch.Queue(
			query,
			p.ID,
			p.TenantID,
			p.Title,
			p.Price,
			p.Type,
			p.TransactionType,
			p.Status,
			p.Area,
			p.City,
			p.Municipality,
			p.State,
			p.Bedrooms,
			p.Bathrooms,
			p.NetSqm,
			p.GrossSqm,
			p.SquareFeet,
			p.Floor,
			p.HasElevator,
			p.PetsAllowed,
			p.HasParking,
			p.Furnished,
			p.Heating,
			p.EnergyClass,
			p.Condition,
			amenities,
			p.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(properties); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a property by ID, scoped to the tenant
func (r *PropertyRepository) GetByID(ctx context.Context, tenantID uuid.UUID, propertyID string) (*models.PropertyForMatching, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE id = $1 AND tenant_id = $2
	`

	property, err := scanProperty(r.pool.QueryRow(ctx, query, propertyID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return property, nil
}

// ListActive retrieves every active listing for the tenant, for a matching run
func (r *PropertyRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]models.PropertyForMatching, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE tenant_id = $1 AND status = 'ACTIVE'
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []models.PropertyForMatching
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *property)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return properties, nil
}

// List retrieves a page of properties for the tenant along with the total count
func (r *PropertyRepository) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]models.PropertyForMatching, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM properties
		WHERE tenant_id = $1
	`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var properties []models.PropertyForMatching
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		properties = append(properties, *property)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}
