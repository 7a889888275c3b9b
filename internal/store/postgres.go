package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-jobspider/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_postings (
	external_id   TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	agency        TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	salary        TEXT NOT NULL DEFAULT '',
	posted_date   TEXT NOT NULL DEFAULT '',
	closing_date  TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL,
	job_reference TEXT NOT NULL DEFAULT '',
	job_type      TEXT NOT NULL DEFAULT '',
	details       JSONB NOT NULL,
	last_run_id   TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS spider_runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	total_jobs  INT NOT NULL,
	succeeded   INT NOT NULL,
	failed      INT NOT NULL,
	errors      JSONB NOT NULL
);`

const upsertJob = `
INSERT INTO job_postings (external_id, title, agency, location, salary, posted_date, closing_date,
	url, job_reference, job_type, details, last_run_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (external_id)
DO UPDATE SET title = EXCLUDED.title, agency = EXCLUDED.agency, location = EXCLUDED.location,
	salary = EXCLUDED.salary, closing_date = EXCLUDED.closing_date, job_type = EXCLUDED.job_type,
	details = EXCLUDED.details, last_run_id = EXCLUDED.last_run_id, updated_at = now()`

const insertRun = `
INSERT INTO spider_runs (run_id, started_at, finished_at, total_jobs, succeeded, failed, errors)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id) DO NOTHING`

// Postgres upserts extracted jobs keyed by listing id and records one row
// per run.
type Postgres struct {
	db *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Transaction-mode poolers (PgBouncer) do not support prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Postgres{db: pool}, nil
}

func (p *Postgres) Close() {
	if p.db != nil {
		p.db.Close()
	}
}

// Migrate creates the tables when they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Save writes the run and all its jobs in one transaction.
func (p *Postgres) Save(ctx context.Context, result Result) error {
	runArgs, err := runRow(result)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	batch.Queue(insertRun, runArgs...)
	for _, job := range result.Jobs {
		args, err := jobRow(result.RunID, job)
		if err != nil {
			return err
		}
		batch.Queue(upsertJob, args...)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.RunID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", result.RunID, err)
	}
	return nil
}

// CountJobs returns how many postings are stored.
func (p *Postgres) CountJobs(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRow(ctx, "SELECT count(*) FROM job_postings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}

func jobRow(runID string, job models.JobDetails) ([]any, error) {
	id := job.Key()
	if id == "" {
		id = job.DetailURL()
	}
	if id == "" {
		return nil, fmt.Errorf("job %q has neither id nor url", job.Title)
	}
	details, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job %s: %w", id, err)
	}
	return []any{
		id, job.Title, job.Agency, job.Location, job.Salary, job.PostedDate, job.ClosingDate,
		job.DetailURL(), job.JobReference, job.JobType, details, runID,
	}, nil
}

func runRow(result Result) ([]any, error) {
	m := result.Metrics
	errs, err := json.Marshal(m.Errors)
	if err != nil {
		return nil, fmt.Errorf("marshal run errors: %w", err)
	}
	return []any{result.RunID, m.StartTime, m.EndTime, m.TotalJobs, m.SuccessfulScrapes, m.FailedScrapes, errs}, nil
}
