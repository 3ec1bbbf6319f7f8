package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/simulation"
	"github.com/nvandessel/coopnet/internal/sweep"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements ResultStore on a single SQLite database file.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the database at dbPath and initializes
// its schema.
func Open(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

// SaveSweep writes the sweep, its network edges, and every run in one
// transaction.
func (s *SQLiteStore) SaveSweep(ctx context.Context, net *network.Network, report *sweep.Report, meta Meta) (string, error) {
	if net == nil || report == nil {
		return "", fmt.Errorf("network and report are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	createdAt := report.StartedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sweeps (id, created_at, label, node_count, edge_probability, steps, seed, policy, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, createdAt.UTC().Format(time.RFC3339Nano), meta.Label, report.Nodes, meta.EdgeProbability,
		report.Steps, strconv.FormatUint(report.Seed, 10), report.Policy, report.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("failed to insert sweep: %w", err)
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO network_edges (sweep_id, a, b) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range net.Edges() {
		if _, err := edgeStmt.ExecContext(ctx, id, e.A, e.B); err != nil {
			return "", fmt.Errorf("failed to insert edge %d-%d: %w", e.A, e.B, err)
		}
	}

	fracStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_fractions (run_id, step, fraction) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare fraction insert: %w", err)
	}
	defer fracStmt.Close()

	for _, run := range report.Runs {
		runID := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, sweep_id, idx, t, s, final_fraction, tail_mean, tail_std, final_assignment, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, id, run.Index, run.Params.T, run.Params.S, run.FinalFraction, run.TailMean, run.TailStd,
			nullString(simulation.FormatAssignment(run.Final)), nullString(run.Err))
		if err != nil {
			return "", fmt.Errorf("failed to insert run %d: %w", run.Index, err)
		}
		for step, f := range run.Fractions {
			if _, err := fracStmt.ExecContext(ctx, runID, step+1, f); err != nil {
				return "", fmt.Errorf("failed to insert fraction for run %d: %w", run.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit sweep: %w", err)
	}
	return id, nil
}

const sweepColumns = `
	s.id, s.created_at, COALESCE(s.label, ''), s.node_count, s.edge_probability, s.steps, s.seed, s.policy,
	COALESCE(s.duration_ms, 0),
	(SELECT COUNT(*) FROM runs r WHERE r.sweep_id = s.id),
	(SELECT COUNT(*) FROM runs r WHERE r.sweep_id = s.id AND r.error IS NOT NULL)`

// ListSweeps returns all sweeps, newest first.
func (s *SQLiteStore) ListSweeps(ctx context.Context) ([]SweepSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+sweepColumns+` FROM sweeps s ORDER BY s.created_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweeps: %w", err)
	}
	defer rows.Close()

	var out []SweepSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// LoadSweep returns a sweep by ID or unique prefix with its network and
// full per-round series.
func (s *SQLiteStore) LoadSweep(ctx context.Context, idOrPrefix string) (*StoredSweep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	sum, err := scanSummary(s.db.QueryRowContext(ctx, `SELECT `+sweepColumns+` FROM sweeps s WHERE s.id = ?`, id))
	if err != nil {
		return nil, err
	}

	net, err := s.loadNetwork(ctx, id, sum.Nodes)
	if err != nil {
		return nil, err
	}

	runs, err := s.loadRuns(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &sweep.Report{
		Nodes:      net.NodeCount(),
		Edges:      net.EdgeCount(),
		MeanDegree: net.MeanDegree(),
		Isolated:   len(net.IsolatedNodes()),
		Seed:       sum.Seed,
		Steps:      sum.Steps,
		Policy:     sum.Policy,
		Runs:       runs,
		StartedAt:  sum.CreatedAt,
		Duration:   sum.Duration,
	}
	return &StoredSweep{SweepSummary: sum, Network: net, Report: report}, nil
}

// DeleteSweep removes a sweep; edges, runs, and fractions cascade.
func (s *SQLiteStore) DeleteSweep(ctx context.Context, idOrPrefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(ctx, idOrPrefix)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sweeps WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete sweep: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) resolve(ctx context.Context, idOrPrefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sweeps WHERE id LIKE ? || '%'`, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to look up sweep: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan sweep id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return resolveID(idOrPrefix, ids)
}

func (s *SQLiteStore) loadNetwork(ctx context.Context, id string, nodes int) (*network.Network, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a, b FROM network_edges WHERE sweep_id = ? ORDER BY a, b`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []network.Edge
	for rows.Next() {
		var e network.Edge
		if err := rows.Scan(&e.A, &e.B); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	net, err := network.New(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("stored network is invalid: %w", err)
	}
	return net, nil
}

func (s *SQLiteStore) loadRuns(ctx context.Context, id string) ([]sweep.RunReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, idx, t, s, COALESCE(final_fraction, 0), COALESCE(tail_mean, 0), COALESCE(tail_std, 0),
		       COALESCE(final_assignment, ''), COALESCE(error, '')
		FROM runs WHERE sweep_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []sweep.RunReport
	var runIDs []string
	for rows.Next() {
		var (
			runID      string
			run        sweep.RunReport
			assignment string
		)
		if err := rows.Scan(&runID, &run.Index, &run.Params.T, &run.Params.S, &run.FinalFraction,
			&run.TailMean, &run.TailStd, &assignment, &run.Err); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if assignment != "" {
			final, err := simulation.ParseAssignment(assignment)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("run %d: %w", run.Index, err)
			}
			run.Final = final
		}
		runs = append(runs, run)
		runIDs = append(runIDs, runID)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// The pool holds a single connection, so fractions are read only after
	// the runs cursor is closed.
	for i, runID := range runIDs {
		fractions, err := s.loadFractions(ctx, runID)
		if err != nil {
			return nil, err
		}
		runs[i].Fractions = fractions
	}
	return runs, nil
}

func (s *SQLiteStore) loadFractions(ctx context.Context, runID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fraction FROM run_fractions WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fractions: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var f float64
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan fraction: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (SweepSummary, error) {
	var (
		sum        SweepSummary
		createdAt  string
		seed       string
		durationMS int64
	)
	if err := row.Scan(&sum.ID, &createdAt, &sum.Label, &sum.Nodes, &sum.EdgeProbability, &sum.Steps,
		&seed, &sum.Policy, &durationMS, &sum.Runs, &sum.Failed); err != nil {
		if err == sql.ErrNoRows {
			return sum, ErrNotFound
		}
		return sum, fmt.Errorf("failed to scan sweep: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return sum, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	sum.CreatedAt = t

	n, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return sum, fmt.Errorf("invalid seed %q: %w", seed, err)
	}
	sum.Seed = n
	sum.Duration = time.Duration(durationMS) * time.Millisecond
	return sum, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
