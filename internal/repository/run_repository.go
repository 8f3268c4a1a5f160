package repository

import (
	"context"
	"errors"

	"signal-forest/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createTrainingRunsTable = `
CREATE TABLE IF NOT EXISTS training_runs (
    id           BIGSERIAL   PRIMARY KEY,
    symbol       TEXT        NOT NULL,
    learner      TEXT        NOT NULL,
    classifier   BOOLEAN     NOT NULL,
    bags         INTEGER     NOT NULL,
    leaf_size    INTEGER     NOT NULL,
    max_depth    INTEGER     NOT NULL,
    seed         BIGINT      NOT NULL,
    train_rows   INTEGER     NOT NULL,
    test_rows    INTEGER     NOT NULL,
    train_from   TIMESTAMPTZ NOT NULL,
    test_to      TIMESTAMPTZ NOT NULL,
    status       TEXT        NOT NULL,
    metrics_json JSONB       NOT NULL DEFAULT '{}'::jsonb,
    error        TEXT        NOT NULL DEFAULT '',
    duration_ms  BIGINT      NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_training_runs_created
    ON training_runs (created_at DESC);
`

const defaultRunLimit = 20

type RunRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewRunRepository(pool PgxPool, tracer trace.Tracer) *RunRepository {
	return &RunRepository{pool: pool, tracer: tracer}
}

func (r *RunRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "run-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createTrainingRunsTable)
	return err
}

// InsertRun stores run and returns it with its id and creation time.
func (r *RunRepository) InsertRun(ctx context.Context, run domain.TrainingRun) (*domain.TrainingRun, error) {
	ctx, span := r.tracer.Start(ctx, "run-repo.insert")
	defer span.End()

	if run.Symbol == "" || run.Learner == "" || run.Status == "" {
		return nil, errors.New("invalid training run payload")
	}
	metrics := run.MetricsJSON
	if metrics == "" {
		metrics = "{}"
	}

	out := run
	err := r.pool.QueryRow(ctx, `
INSERT INTO training_runs (
    symbol, learner, classifier, bags, leaf_size, max_depth, seed,
    train_rows, test_rows, train_from, test_to,
    status, metrics_json, error, duration_ms
) VALUES (
    $1, $2, $3, $4, $5, $6, $7,
    $8, $9, $10, $11,
    $12, $13, $14, $15
)
RETURNING id, created_at`,
		run.Symbol, run.Learner, run.Classifier, run.Bags, run.LeafSize, run.MaxDepth, int64(run.Seed),
		run.TrainRows, run.TestRows, run.TrainFrom.UTC(), run.TestTo.UTC(),
		string(run.Status), metrics, run.Error, run.DurationMS,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	out.MetricsJSON = metrics
	out.CreatedAt = out.CreatedAt.UTC()
	return &out, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	ctx, span := r.tracer.Start(ctx, "run-repo.list")
	defer span.End()

	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, symbol, learner, classifier, bags, leaf_size, max_depth, seed,
       train_rows, test_rows, train_from, test_to,
       status, metrics_json::text, error, duration_ms, created_at
FROM training_runs
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TrainingRun
	for rows.Next() {
		var run domain.TrainingRun
		var seed int64
		var status string
		if err := rows.Scan(
			&run.ID, &run.Symbol, &run.Learner, &run.Classifier, &run.Bags, &run.LeafSize, &run.MaxDepth, &seed,
			&run.TrainRows, &run.TestRows, &run.TrainFrom, &run.TestTo,
			&status, &run.MetricsJSON, &run.Error, &run.DurationMS, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		run.Seed = uint64(seed)
		run.Status = domain.TrainingRunStatus(status)
		out = append(out, run)
	}
	return out, rows.Err()
}
