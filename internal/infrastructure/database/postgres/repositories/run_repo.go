package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/internal/infrastructure/database/postgres"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/pkg/errors"
)

const runColumns = `id, scenario, seed, status, stats, tree_size, lead, path, elapsed_ns, error, created_at, completed_at`

type postgresRunRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresRunRepo returns a run.Repository backed by the planning_runs table.
func NewPostgresRunRepo(conn *postgres.Connection, log logging.Logger) run.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresRunRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

// Save inserts r or, when a row with the same id exists, overwrites its
// mutable columns.
func (r *postgresRunRepo) Save(ctx context.Context, rn *run.Run) error {
	if rn.ID == uuid.Nil {
		rn.ID = uuid.New()
	}
	statsJSON, err := json.Marshal(rn.Stats)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode run stats")
	}
	leadJSON, err := nullableJSON(rn.Lead, len(rn.Lead) == 0)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode run lead")
	}
	pathJSON, err := nullableJSON(rn.Path, len(rn.Path) == 0)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode run path")
	}

	query := `
		INSERT INTO planning_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status, stats = EXCLUDED.stats, tree_size = EXCLUDED.tree_size,
			lead = EXCLUDED.lead, path = EXCLUDED.path, elapsed_ns = EXCLUDED.elapsed_ns,
			error = EXCLUDED.error, completed_at = EXCLUDED.completed_at
	`
	_, err = r.executor.ExecContext(ctx, query,
		rn.ID, rn.Scenario, rn.Seed, string(rn.Status), statsJSON, rn.TreeSize,
		leadJSON, pathJSON, int64(rn.Elapsed), nullString(rn.Error), rn.CreatedAt, rn.CompletedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRunPersistFailed, "failed to save planning run").
			WithDetail("run_id=" + rn.ID.String())
	}
	r.log.Debug("Saved planning run", logging.String(logging.FieldRunID, rn.ID.String()))
	return nil
}

func (r *postgresRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM planning_runs WHERE id = $1`
	rn, err := scanRun(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeRunNotFound, "planning run not found").WithDetail("run_id=" + id.String())
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load planning run")
	}
	return rn, nil
}

func (r *postgresRunRepo) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM planning_runs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.executor.QueryContext(ctx, query, run.NormalizeLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list planning runs")
	}
	defer rows.Close()

	var runs []*run.Run
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan planning run")
		}
		runs = append(runs, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate planning runs")
	}
	return runs, nil
}

func scanRun(row scanner) (*run.Run, error) {
	var (
		rn          run.Run
		status      string
		statsJSON   []byte
		leadJSON    []byte
		pathJSON    []byte
		elapsedNS   int64
		errText     sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(
		&rn.ID, &rn.Scenario, &rn.Seed, &status, &statsJSON, &rn.TreeSize,
		&leadJSON, &pathJSON, &elapsedNS, &errText, &rn.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	rn.Status = run.Status(status)
	rn.Elapsed = time.Duration(elapsedNS)
	rn.Error = errText.String
	if completedAt.Valid {
		t := completedAt.Time
		rn.CompletedAt = &t
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &rn.Stats); err != nil {
			return nil, err
		}
	}
	if len(leadJSON) > 0 {
		if err := json.Unmarshal(leadJSON, &rn.Lead); err != nil {
			return nil, err
		}
	}
	if len(pathJSON) > 0 {
		if err := json.Unmarshal(pathJSON, &rn.Path); err != nil {
			return nil, err
		}
	}
	return &rn, nil
}

func nullableJSON(v interface{}, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
