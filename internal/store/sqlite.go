package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/davharte/tribunal/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Cycles ---

// CreateCycle persists a cycle with its assignments, verdicts, pending
// instructions, and consensus in one transaction.
func (s *SQLiteStore) CreateCycle(ctx context.Context, c *models.ReviewCycle) error {
	if c.ID == "" {
		c.ID = newULID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	inputJSON, err := json.Marshal(c.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	assignJSON, err := json.Marshal(c.Assignments)
	if err != nil {
		return fmt.Errorf("marshal assignments: %w", err)
	}
	var consensusJSON []byte
	if c.Consensus != nil {
		consensusJSON, err = json.Marshal(c.Consensus)
		if err != nil {
			return fmt.Errorf("marshal consensus: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cycles (id, input, assignments, consensus, provisional, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(inputJSON), string(assignJSON), nullString(consensusJSON), boolToInt(c.Provisional), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for _, v := range c.Verdicts {
		if err := insertVerdict(ctx, tx, c.ID, v, now); err != nil {
			return err
		}
	}

	for _, p := range c.Pending {
		toolsJSON, err := json.Marshal(p.AllowedTools)
		if err != nil {
			return fmt.Errorf("marshal allowed tools: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pending_instructions (id, cycle_id, role, backend_id, prompt, allowed_tools, resolved, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			newULID(), c.ID, string(p.Role), p.BackendID, p.Prompt, string(toolsJSON), now,
		)
		if err != nil {
			return fmt.Errorf("insert pending instruction: %w", err)
		}
	}

	return tx.Commit()
}

// GetCycle loads a cycle with its verdicts and unresolved pending
// instructions.
func (s *SQLiteStore) GetCycle(ctx context.Context, id string) (*models.ReviewCycle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input, assignments, consensus, provisional, created_at, updated_at FROM cycles WHERE id = ?`, id)

	c, err := scanCycle(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("cycle not found: %s", id)
		}
		return nil, err
	}

	if c.Verdicts, err = s.cycleVerdicts(ctx, c.ID); err != nil {
		return nil, err
	}
	if c.Pending, err = s.cyclePending(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCycles returns cycles newest first, without verdict detail.
func (s *SQLiteStore) ListCycles(ctx context.Context, limit int) ([]*models.ReviewCycle, error) {
	query := `SELECT id, input, assignments, consensus, provisional, created_at, updated_at
		FROM cycles ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*models.ReviewCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// SubmitVerdict records a verdict and resolves the matching pending
// instruction.
func (s *SQLiteStore) SubmitVerdict(ctx context.Context, cycleID string, v models.Verdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if err := insertVerdict(ctx, tx, cycleID, v, now); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE pending_instructions SET resolved = 1 WHERE cycle_id = ? AND role = ?`,
		cycleID, string(v.Role),
	)
	if err != nil {
		return fmt.Errorf("resolve pending instruction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE cycles SET updated_at = ? WHERE id = ?`, now, cycleID)
	if err != nil {
		return fmt.Errorf("touch cycle: %w", err)
	}

	return tx.Commit()
}

// UpdateConsensus replaces the stored consensus for a cycle.
func (s *SQLiteStore) UpdateConsensus(ctx context.Context, cycleID string, c models.Consensus, provisional bool) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal consensus: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE cycles SET consensus = ?, provisional = ?, updated_at = ? WHERE id = ?`,
		string(data), boolToInt(provisional), time.Now().UTC(), cycleID,
	)
	if err != nil {
		return fmt.Errorf("update consensus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update consensus: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("cycle not found: %s", cycleID)
	}
	return nil
}

// --- helpers ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func insertVerdict(ctx context.Context, tx *sql.Tx, cycleID string, v models.Verdict, now time.Time) error {
	var findingsJSON []byte
	if v.Findings != nil {
		var err error
		findingsJSON, err = json.Marshal(v.Findings)
		if err != nil {
			return fmt.Errorf("marshal findings: %w", err)
		}
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO verdicts (id, cycle_id, role, backend_id, decision, confidence, findings, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newULID(), cycleID, string(v.Role), v.BackendID, string(v.Decision), v.Confidence,
		nullString(findingsJSON), string(v.Status), v.Error, v.Duration.Milliseconds(), now,
	)
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (*models.ReviewCycle, error) {
	var c models.ReviewCycle
	var inputJSON, assignJSON string
	var consensusJSON sql.NullString
	var provisional int

	err := row.Scan(&c.ID, &inputJSON, &assignJSON, &consensusJSON, &provisional, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(inputJSON), &c.Input); err != nil {
		return nil, fmt.Errorf("unmarshal input: %w", err)
	}
	if err := json.Unmarshal([]byte(assignJSON), &c.Assignments); err != nil {
		return nil, fmt.Errorf("unmarshal assignments: %w", err)
	}
	if consensusJSON.Valid {
		var consensus models.Consensus
		if err := json.Unmarshal([]byte(consensusJSON.String), &consensus); err != nil {
			return nil, fmt.Errorf("unmarshal consensus: %w", err)
		}
		c.Consensus = &consensus
	}
	c.Provisional = provisional != 0

	return &c, nil
}

func (s *SQLiteStore) cycleVerdicts(ctx context.Context, cycleID string) ([]models.Verdict, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, backend_id, decision, confidence, findings, status, error, duration_ms
		FROM verdicts WHERE cycle_id = ? ORDER BY created_at, role`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []models.Verdict
	for rows.Next() {
		var v models.Verdict
		var findingsJSON, errText sql.NullString
		var durationMs int64
		err := rows.Scan(&v.Role, &v.BackendID, &v.Decision, &v.Confidence, &findingsJSON, &v.Status, &errText, &durationMs)
		if err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		if findingsJSON.Valid {
			if err := json.Unmarshal([]byte(findingsJSON.String), &v.Findings); err != nil {
				return nil, fmt.Errorf("unmarshal findings: %w", err)
			}
		}
		v.Error = errText.String
		v.Duration = time.Duration(durationMs) * time.Millisecond
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

func (s *SQLiteStore) cyclePending(ctx context.Context, cycleID string) ([]models.PendingInstruction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, backend_id, prompt, allowed_tools
		FROM pending_instructions WHERE cycle_id = ? AND resolved = 0 ORDER BY created_at, role`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list pending instructions: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingInstruction
	for rows.Next() {
		var p models.PendingInstruction
		var toolsJSON sql.NullString
		if err := rows.Scan(&p.Role, &p.BackendID, &p.Prompt, &toolsJSON); err != nil {
			return nil, fmt.Errorf("scan pending instruction: %w", err)
		}
		if toolsJSON.Valid {
			if err := json.Unmarshal([]byte(toolsJSON.String), &p.AllowedTools); err != nil {
				return nil, fmt.Errorf("unmarshal allowed tools: %w", err)
			}
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}
