package finetune

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/wayfarer/internal/llm"
)

// JobRecord is one row of local fine-tuning job history.
type JobRecord struct {
	ID           string    `json:"id"`
	ProviderID   string    `json:"provider_job_id"`
	BaseModel    string    `json:"base_model"`
	Status       string    `json:"status"`
	ModelID      string    `json:"fine_tuned_model,omitempty"`
	TrainingFile string    `json:"training_file,omitempty"`
	ErrorText    string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store keeps fine-tuning job history in SQLite so past runs stay
// inspectable without asking the provider.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand
}

// OpenStore opens or creates the history database at the given path.
func OpenStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open jobs db: %w", err)
	}

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate jobs db: %w", err)
	}
	return s, nil
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS finetune_jobs (
		id            TEXT PRIMARY KEY,
		provider_id   TEXT NOT NULL UNIQUE,
		base_model    TEXT NOT NULL,
		status        TEXT NOT NULL,
		model_id      TEXT NOT NULL DEFAULT '',
		training_file TEXT NOT NULL DEFAULT '',
		error         TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_finetune_jobs_created ON finetune_jobs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert records the provider's current view of a job. The first write for a
// provider job id inserts; later writes update status, model and error but
// keep the original row id and creation time.
func (s *Store) Upsert(ctx context.Context, job *llm.FineTuningJob) error {
	now := time.Now().UTC().Format(time.RFC3339)
	reason := ""
	if job.Error != nil {
		reason = job.Error.Message
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO finetune_jobs (id, provider_id, base_model, status, model_id, training_file, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider_id) DO UPDATE SET
			status     = excluded.status,
			model_id   = CASE WHEN excluded.model_id != '' THEN excluded.model_id ELSE finetune_jobs.model_id END,
			error      = excluded.error,
			updated_at = excluded.updated_at`,
		s.newID(), job.ID, job.Model, job.Status, job.FineTunedModel, job.TrainingFile, reason, now, now)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.ID, err)
	}
	return nil
}

// List returns job history, newest first.
func (s *Store) List(ctx context.Context) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider_id, base_model, status, model_id, training_file, error, created_at, updated_at
		FROM finetune_jobs
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		var created, updated string
		if err := rows.Scan(&rec.ID, &rec.ProviderID, &rec.BaseModel, &rec.Status,
			&rec.ModelID, &rec.TrainingFile, &rec.ErrorText, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
