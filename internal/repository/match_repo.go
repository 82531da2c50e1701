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

// Match run statuses.
const (
	RunStatusPending   = "PENDING"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
)

// MatchRepository handles data access for match runs and their results
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// CreateRun inserts a new match run record
func (r *MatchRepository) CreateRun(ctx context.Context, run *models.MatchRun) error {
	if run == nil {
		return errors.New("match run cannot be nil")
	}

	query := `
		INSERT INTO match_runs (
			id, tenant_id, status, client_count, property_count, pair_count
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		RETURNING created_at, updated_at
	`

	return r.pool.QueryRow(
		ctx,
		query,
		run.ID,
		run.TenantID,
		run.Status,
		run.ClientCount,
		run.PropertyCount,
		run.PairCount,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
}

// GetRun retrieves a match run by ID, scoped to the tenant
func (r *MatchRepository) GetRun(ctx context.Context, tenantID, runID uuid.UUID) (*models.MatchRun, error) {
	query := `
		SELECT id, tenant_id, status, client_count, property_count, pair_count,
		       duration_ms, last_error, created_at, updated_at
		FROM match_runs
		WHERE id = $1 AND tenant_id = $2
	`

	run := &models.MatchRun{}
	err := r.pool.QueryRow(ctx, query, runID, tenantID).Scan(
		&run.ID,
		&run.TenantID,
		&run.Status,
		&run.ClientCount,
		&run.PropertyCount,
		&run.PairCount,
		&run.DurationMs,
		&run.LastError,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return run, nil
}

// LatestSucceededRun retrieves the most recent succeeded run for the tenant
func (r *MatchRepository) LatestSucceededRun(ctx context.Context, tenantID uuid.UUID) (*models.MatchRun, error) {
	query := `
		SELECT id, tenant_id, status, client_count, property_count, pair_count,
		       duration_ms, last_error, created_at, updated_at
		FROM match_runs
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	run := &models.MatchRun{}
	err := r.pool.QueryRow(ctx, query, tenantID, RunStatusSucceeded).Scan(
		&run.ID,
		&run.TenantID,
		&run.Status,
		&run.ClientCount,
		&run.PropertyCount,
		&run.PairCount,
		&run.DurationMs,
		&run.LastError,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return run, nil
}

// UpdateRunCounts records the input sizes once the run's snapshot is loaded
func (r *MatchRepository) UpdateRunCounts(ctx context.Context, runID uuid.UUID, clientCount, propertyCount int) error {
	query := `
		UPDATE match_runs
		SET client_count = $1,
		    property_count = $2,
		    updated_at = NOW()
		WHERE id = $3
		RETURNING id
	`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, clientCount, propertyCount, runID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("match run not found")
		}
		return err
	}

	return nil
}

// UpdateRunStatus updates the status and completion fields for a match run
func (r *MatchRepository) UpdateRunStatus(
	ctx context.Context,
	runID uuid.UUID,
	status string,
	pairCount *int,
	lastError *string,
	durationMs *int,
) error {
	query := `
		UPDATE match_runs
		SET status = $1,
		    pair_count = COALESCE($2, pair_count),
		    last_error = COALESCE($3, last_error),
		    duration_ms = COALESCE($4, duration_ms),
		    updated_at = NOW()
		WHERE id = $5
		RETURNING id
	`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, status, pairCount, lastError, durationMs, runID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("match run not found")
		}
		return err
	}

	return nil
}

// BulkInsertResults performs a batch insert of match results for a run
func (r *MatchRepository) BulkInsertResults(ctx context.Context, tenantID, runID uuid.UUID, results []models.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO match_results (
			tenant_id, run_id, client_id, property_id, overall_score,
			breakdown, matched_criteria, total_criteria, calculated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (run_id, client_id, property_id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			breakdown = EXCLUDED.breakdown,
			matched_criteria = EXCLUDED.matched_criteria,
			total_criteria = EXCLUDED.total_criteria,
			calculated_at = EXCLUDED.calculated_at
	`

	for _, result := range results {
		breakdown, err := json.Marshal(result.Breakdown)
		if err != nil {
			return err
		}

		batch.Queue(
			query,
			tenantID,
			runID,
			result.ClientID,
			result.PropertyID,
			result.OverallScore,
			breakdown,
			result.MatchedCriteria,
			result.TotalCriteria,
			result.CalculatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(results); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	return nil
}

const matchResultColumns = `client_id, property_id, overall_score, breakdown,
	       matched_criteria, total_criteria, calculated_at`

func scanMatchResult(row pgx.Row) (*models.MatchResult, error) {
	result := &models.MatchResult{}
	var breakdown []byte
	err := row.Scan(
		&result.ClientID,
		&result.PropertyID,
		&result.OverallScore,
		&breakdown,
		&result.MatchedCriteria,
		&result.TotalCriteria,
		&result.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(breakdown, &result.Breakdown); err != nil {
		return nil, err
	}

	return result, nil
}

// ListResultsByClient retrieves a client's results for a run, best first
func (r *MatchRepository) ListResultsByClient(ctx context.Context, tenantID, runID uuid.UUID, clientID string, limit int) ([]models.MatchResult, error) {
	query := `
		SELECT ` + matchResultColumns + `
		FROM match_results
		WHERE tenant_id = $1 AND run_id = $2 AND client_id = $3
		ORDER BY overall_score DESC, property_id ASC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, tenantID, runID, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.MatchResult
	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// ListResultsByRun retrieves every result for a run
func (r *MatchRepository) ListResultsByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]models.MatchResult, error) {
	query := `
		SELECT ` + matchResultColumns + `
		FROM match_results
		WHERE tenant_id = $1 AND run_id = $2
		ORDER BY client_id ASC, property_id ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.MatchResult
	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
