package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/estia-crm/matchmaking/internal/models"
	"github.com/estia-crm/matchmaking/internal/repository"
)

// Pipeline manages the asynchronous matching run workflow. It coordinates
// between repositories, tenant weight resolution, and the engine.
type Pipeline struct {
	clientRepo         *repository.ClientRepository
	propertyRepo       *repository.PropertyRepository
	matchRepo          *repository.MatchRepository
	weightRepo         *repository.WeightConfigRepository
	budgetTolerancePct float64
	workerCount        int
	batchInsertSize    int
}

// NewPipeline creates a new matching pipeline
func NewPipeline(
	clientRepo *repository.ClientRepository,
	propertyRepo *repository.PropertyRepository,
	matchRepo *repository.MatchRepository,
	weightRepo *repository.WeightConfigRepository,
	budgetTolerancePct float64,
	workerCount int,
	batchInsertSize int,
) *Pipeline {
	if workerCount < 1 {
		workerCount = 1
	}
	if batchInsertSize < 1 {
		batchInsertSize = 500
	}
	return &Pipeline{
		clientRepo:         clientRepo,
		propertyRepo:       propertyRepo,
		matchRepo:          matchRepo,
		weightRepo:         weightRepo,
		budgetTolerancePct: budgetTolerancePct,
		workerCount:        workerCount,
		batchInsertSize:    batchInsertSize,
	}
}

// Execute performs the matching run.
// Steps:
// a. Updates run status to RUNNING
// b. Resolves the tenant's criterion weights
// c. Fetches active clients and properties
// d. Scores the cross-product across a worker pool
// e. Bulk inserts results in batches
// f. Updates run status to SUCCEEDED with pair_count and duration_ms
// On error: updates run status to FAILED with last_error
func (p *Pipeline) Execute(ctx context.Context, run *models.MatchRun) error {
	startTime := time.Now()
	logger := slog.Default().With(
		slog.String("service", "matching-pipeline"),
		slog.String("tenant_id", run.TenantID.String()),
		slog.String("run_id", run.ID.String()),
	)

	stepLogger := logger.With(slog.String("step", "update_status_running"))
	stepLogger.Info("updating run status to running")

	if err := p.matchRepo.UpdateRunStatus(ctx, run.ID, repository.RunStatusRunning, nil, nil, nil); err != nil {
		stepLogger.Error("failed to update run status", slog.String("error", err.Error()))
		return p.handleExecutionError(ctx, logger, run, err)
	}

	stepLogger = logger.With(slog.String("step", "resolve_weights"))
	stepLogger.Info("resolving tenant criterion weights")

	overrides, err := p.weightRepo.Get(ctx, run.TenantID)
	if err != nil {
		stepLogger.Error("failed to load weight overrides", slog.String("error", err.Error()))
		return p.handleExecutionError(ctx, logger, run, err)
	}

	weights, err := ResolveWeights(overrides)
	if err != nil {
		stepLogger.Error("failed to resolve weights", slog.String("error", err.Error()))
		return p.handleExecutionError(ctx, logger, run, err)
	}

	stepLogger = logger.With(slog.String("step", "fetch_records"))
	stepLogger.Info("fetching active clients and properties")

	clients, err := p.clientRepo.ListActive(ctx, run.TenantID)
	if err != nil {
		stepLogger.Error("failed to fetch clients", slog.String("error", err.Error()))
		return p.handleExecutionError(ctx, logger, run, err)
	}

	properties, err := p.propertyRepo.ListActive(ctx, run.TenantID)
	if err != nil {
		stepLogger.Error("failed to fetch properties", slog.String("error", err.Error()))
		return p.handleExecutionError(ctx, logger, run, err)
	}

	stepLogger.Info("records fetched",
		slog.Int("client_count", len(clients)),
		slog.Int("property_count", len(properties)))

	if err := p.matchRepo.UpdateRunCounts(ctx, run.ID, len(clients), len(properties)); err != nil {
		stepLogger.Error("failed to update run counts", slog.String("error", err.Error()))
		return p.handleExecutionError(ctx, logger, run, err)
	}

	if len(clients) == 0 || len(properties) == 0 {
		completeDuration := int(time.Since(startTime).Milliseconds())
		if err := p.matchRepo.UpdateRunStatus(ctx, run.ID, repository.RunStatusSucceeded, intPtr(0), nil, intPtr(completeDuration)); err != nil {
			logger.Error("failed to update final status", slog.String("error", err.Error()))
		}
		return nil
	}

	stepLogger = logger.With(slog.String("step", "score_pairs"))
	stepLogger.Info("scoring client-property pairs",
		slog.Int("worker_count", p.workerCount))

	results, err := p.scoreAll(ctx, weights, clients, properties)
	if err != nil {
		stepLogger.Error("scoring failed", slog.String("error", err.Error()))
		return p.handleExecutionError(ctx, logger, run, err)
	}

	stepLogger.Info("pairs scored", slog.Int("pair_count", len(results)))

	stepLogger = logger.With(slog.String("step", "bulk_insert_results"))
	stepLogger.Info("bulk inserting match results")

	for start := 0; start < len(results); start += p.batchInsertSize {
		end := start + p.batchInsertSize
		if end > len(results) {
			end = len(results)
		}
		if err := p.matchRepo.BulkInsertResults(ctx, run.TenantID, run.ID, results[start:end]); err != nil {
			stepLogger.Error("failed to insert results batch", slog.String("error", err.Error()))
			return p.handleExecutionError(ctx, logger, run, err)
		}
	}

	stepLogger = logger.With(slog.String("step", "update_status_succeeded"))
	stepLogger.Info("updating run status to succeeded")

	completeDuration := int(time.Since(startTime).Milliseconds())
	pairCount := len(results)

	if err := p.matchRepo.UpdateRunStatus(ctx, run.ID, repository.RunStatusSucceeded, intPtr(pairCount), nil, intPtr(completeDuration)); err != nil {
		stepLogger.Error("failed to update final status", slog.String("error", err.Error()))
		return err
	}

	logger.Info("matching pipeline completed successfully",
		slog.Int("duration_ms", completeDuration),
		slog.Int("pair_count", pairCount))

	return nil
}

// scoreAll fans the clients out across a worker pool. Each worker scores one
// client against every property. Results land in per-client slots so the
// final slice is client-major and deterministic regardless of scheduling.
func (p *Pipeline) scoreAll(
	ctx context.Context,
	weights Weights,
	clients []models.ClientForMatching,
	properties []models.PropertyForMatching,
) ([]models.MatchResult, error) {
	engine := NewEngine(weights, p.budgetTolerancePct)

	perClient := make([][]models.MatchResult, len(clients))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	workers := p.workerCount
	if workers > len(clients) {
		workers = len(clients)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Keep draining jobs after a failure so the producer never blocks.
			for idx := range jobs {
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					continue
				}

				rows := make([]models.MatchResult, 0, len(properties))
				for _, property := range properties {
					result, err := engine.Match(clients[idx], property)
					if err != nil {
						setErr(fmt.Errorf("client %s: %w", clients[idx].ID, err))
						rows = nil
						break
					}
					rows = append(rows, result)
				}
				perClient[idx] = rows
			}
		}()
	}

	for idx := range clients {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	results := make([]models.MatchResult, 0, len(clients)*len(properties))
	for _, rows := range perClient {
		results = append(results, rows...)
	}
	return results, nil
}

// handleExecutionError updates run status to FAILED and returns the error
func (p *Pipeline) handleExecutionError(
	ctx context.Context,
	logger *slog.Logger,
	run *models.MatchRun,
	err error,
) error {
	errorMsg := err.Error()
	logger.Error("execution error occurred", slog.String("error", errorMsg))

	if updateErr := p.matchRepo.UpdateRunStatus(ctx, run.ID, repository.RunStatusFailed, nil, stringPtr(errorMsg), nil); updateErr != nil {
		logger.Error("failed to update run status to failed",
			slog.String("update_error", updateErr.Error()))
	}

	return err
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}
