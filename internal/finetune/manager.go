package finetune

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rcliao/wayfarer/internal/config"
	"github.com/rcliao/wayfarer/internal/llm"
)

// JobsClient is the slice of the LLM client the manager needs.
type JobsClient interface {
	UploadFile(ctx context.Context, filename string, contents []byte, purpose string) (*llm.File, error)
	GetFile(ctx context.Context, id string) (*llm.File, error)
	CreateFineTuningJob(ctx context.Context, req llm.CreateJobRequest) (*llm.FineTuningJob, error)
	GetFineTuningJob(ctx context.Context, id string) (*llm.FineTuningJob, error)
	ListModels(ctx context.Context) ([]llm.Model, error)
}

// Poll and wait intervals for job monitoring.
const (
	pollActive         = 30 * time.Second
	pollWaiting        = 60 * time.Second
	pollAfterError     = 60 * time.Second
	fileProcessingWait = 10 * time.Second

	// DefaultMaxWait bounds monitoring when no budget is configured.
	DefaultMaxWait = time.Hour
)

// Outcome is the terminal state of a monitored job. These are results, not
// errors: a failed job is an answer, not an exception.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeFailed           Outcome = "failed"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeTimeout          Outcome = "timeout"
	OutcomeMonitoringFailed Outcome = "monitoring_failed"
)

// MonitorResult reports how monitoring a job ended.
type MonitorResult struct {
	Outcome Outcome            `json:"status"`
	ModelID string             `json:"model_id,omitempty"`
	Err     string             `json:"error,omitempty"`
	Elapsed float64            `json:"elapsed_seconds"`
	Job     *llm.FineTuningJob `json:"job,omitempty"`
}

// Manager drives fine-tuning at the provider end to end: dataset, upload,
// job creation, monitoring, artifacts, history.
type Manager struct {
	client JobsClient
	store  *Store
	cfg    config.Settings
	log    *slog.Logger

	// now and sleep are swapped out in tests.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewManager wires a manager. store may be nil to skip local job history; a
// nil logger discards logs.
func NewManager(client JobsClient, store *Store, cfg config.Settings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		client: client,
		store:  store,
		cfg:    cfg,
		log:    logger,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WriteDataset builds the training corpus and writes it as JSONL under dir,
// one conversation per line. It returns the file path and example count.
func (m *Manager) WriteDataset(dir string) (string, int, error) {
	examples, err := BuildDataset()
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create training dir: %w", err)
	}

	name := fmt.Sprintf("travel_destinations_training_%s.jsonl", m.now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	var buf strings.Builder
	for _, ex := range examples {
		line, err := json.Marshal(ex)
		if err != nil {
			return "", 0, fmt.Errorf("encode training example: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return "", 0, fmt.Errorf("write training file: %w", err)
	}

	m.log.Info("training data written", "path", path, "examples", len(examples))
	return path, len(examples), nil
}

// Upload sends a training file to the provider and returns its file ID.
func (m *Manager) Upload(ctx context.Context, path string) (string, error) {
	m.log.Info("uploading training file", "path", path)

	contents, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read training file: %w", err)
	}
	file, err := m.client.UploadFile(ctx, filepath.Base(path), contents, "fine-tune")
	if err != nil {
		return "", fmt.Errorf("upload training file: %w", err)
	}

	m.log.Info("training file uploaded", "file_id", file.ID, "path", path)
	return file.ID, nil
}

// JobRequest describes a fine-tuning job to create. Zero values get
// defaults: base model gpt-3.5-turbo, a dated suffix, and epochs picked per
// model.
type JobRequest struct {
	TrainingFileID string
	BaseModel      string
	Suffix         string
	NEpochs        string
}

// Models the provider accepts explicit epoch counts for.
func supportsEpochs(model string) bool {
	return model == "gpt-3.5-turbo" || model == "gpt-4"
}

// CreateJob checks the training file is processed (waiting once if not),
// creates the job, and records it in the history store.
func (m *Manager) CreateJob(ctx context.Context, req JobRequest) (string, error) {
	if req.TrainingFileID == "" {
		return "", errors.New("training file id required")
	}
	base := req.BaseModel
	if base == "" {
		base = "gpt-3.5-turbo"
	}
	suffix := req.Suffix
	if suffix == "" {
		suffix = "travel-destinations-" + m.now().Format("20060102")
	}

	m.log.Info("creating fine-tuning job",
		"base_model", base, "training_file_id", req.TrainingFileID, "suffix", suffix)

	file, err := m.client.GetFile(ctx, req.TrainingFileID)
	if err != nil {
		return "", fmt.Errorf("check training file %s: %w", req.TrainingFileID, err)
	}
	m.log.Info("training file status",
		"file_id", file.ID, "status", file.Status, "purpose", file.Purpose, "bytes", file.Bytes)
	if file.Status != llm.FileProcessed {
		m.log.Warn("training file not processed yet, waiting",
			"file_id", file.ID, "status", file.Status)
		if err := m.sleep(ctx, fileProcessingWait); err != nil {
			return "", err
		}
	}

	createReq := llm.CreateJobRequest{
		Model:        base,
		TrainingFile: req.TrainingFileID,
		Suffix:       suffix,
	}
	epochs := req.NEpochs
	if epochs == "" && supportsEpochs(base) {
		epochs = "3"
	}
	if epochs != "" {
		createReq.Hyperparameters = &llm.Hyperparameters{NEpochs: llm.NumberOrAuto(epochs)}
	}

	job, err := m.client.CreateFineTuningJob(ctx, createReq)
	if err != nil {
		return "", fmt.Errorf("create fine-tuning job: %w", err)
	}

	m.log.Info("fine-tuning job created",
		"job_id", job.ID, "status", job.Status, "model", job.Model, "training_file", job.TrainingFile)
	m.record(ctx, job)
	return job.ID, nil
}

// Monitor polls a job until it reaches a terminal state or the wall-clock
// budget runs out. Job outcomes come back in the result; the error is
// non-nil only when ctx ends first.
func (m *Manager) Monitor(ctx context.Context, jobID string, maxWait time.Duration) (MonitorResult, error) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	m.log.Info("monitoring fine-tuning job", "job_id", jobID, "max_wait", maxWait)

	start := m.now()
	var lastStatus string
	for {
		elapsed := m.now().Sub(start)
		if elapsed > maxWait {
			m.log.Error("fine-tuning monitoring timed out",
				"job_id", jobID, "elapsed", elapsed, "max_wait", maxWait)
			return MonitorResult{
				Outcome: OutcomeTimeout,
				Err:     fmt.Sprintf("monitoring timed out after %s", maxWait),
				Elapsed: elapsed.Seconds(),
			}, nil
		}

		job, err := m.client.GetFineTuningJob(ctx, jobID)
		if err != nil {
			m.log.Error("fine-tuning job poll failed",
				"job_id", jobID, "error", err, "elapsed", elapsed)
			if serr := m.sleep(ctx, pollAfterError); serr != nil {
				return MonitorResult{}, serr
			}
			if since := m.now().Sub(start); since > maxWait {
				return MonitorResult{
					Outcome: OutcomeMonitoringFailed,
					Err:     fmt.Sprintf("monitoring failed: %v", err),
					Elapsed: since.Seconds(),
				}, nil
			}
			continue
		}

		if job.Status != lastStatus {
			m.log.Info("fine-tuning job status change",
				"job_id", jobID, "status", job.Status, "elapsed", elapsed,
				"model", job.Model, "fine_tuned_model", job.FineTunedModel)
			lastStatus = job.Status
			m.record(ctx, job)
		}

		switch job.Status {
		case llm.JobSucceeded:
			elapsed = m.now().Sub(start)
			m.log.Info("fine-tuning completed",
				"job_id", jobID, "model_id", job.FineTunedModel, "elapsed", elapsed)
			if _, err := m.SaveModelArtifact(job); err != nil {
				m.log.Error("saving model artifact failed", "job_id", jobID, "error", err)
			}
			return MonitorResult{
				Outcome: OutcomeCompleted,
				ModelID: job.FineTunedModel,
				Elapsed: elapsed.Seconds(),
				Job:     job,
			}, nil

		case llm.JobFailed:
			reason := "unknown error"
			if job.Error != nil && job.Error.Message != "" {
				reason = job.Error.Message
			}
			m.log.Error("fine-tuning job failed",
				"job_id", jobID, "error", reason, "elapsed", elapsed)
			return MonitorResult{
				Outcome: OutcomeFailed,
				Err:     reason,
				Elapsed: elapsed.Seconds(),
				Job:     job,
			}, nil

		case llm.JobCancelled:
			m.log.Warn("fine-tuning job cancelled", "job_id", jobID, "elapsed", elapsed)
			return MonitorResult{
				Outcome: OutcomeCancelled,
				Elapsed: elapsed.Seconds(),
				Job:     job,
			}, nil

		case llm.JobValidatingFiles, llm.JobQueued, llm.JobRunning:
			wait := pollWaiting
			if job.Status == llm.JobRunning {
				wait = pollActive
			}
			m.log.Debug("fine-tuning job in progress",
				"job_id", jobID, "status", job.Status, "elapsed", elapsed,
				"trained_tokens", job.TrainedTokens)
			if err := m.sleep(ctx, wait); err != nil {
				return MonitorResult{}, err
			}

		default:
			m.log.Warn("unknown fine-tuning job status",
				"job_id", jobID, "status", job.Status, "elapsed", elapsed)
			if err := m.sleep(ctx, pollActive); err != nil {
				return MonitorResult{}, err
			}
		}
	}
}

// Run executes the full pipeline: dataset, upload, create, monitor. Step
// failures are errors; how the job itself ended is in the result.
func (m *Manager) Run(ctx context.Context, baseModel string) (MonitorResult, error) {
	m.log.Info("starting fine-tuning pipeline", "base_model", baseModel)

	path, count, err := m.WriteDataset(m.cfg.TrainingDir())
	if err != nil {
		return MonitorResult{}, fmt.Errorf("write training dataset: %w", err)
	}
	m.log.Info("training dataset ready", "path", path, "examples", count)

	fileID, err := m.Upload(ctx, path)
	if err != nil {
		return MonitorResult{}, err
	}
	jobID, err := m.CreateJob(ctx, JobRequest{TrainingFileID: fileID, BaseModel: baseModel})
	if err != nil {
		return MonitorResult{}, err
	}
	return m.Monitor(ctx, jobID, m.cfg.FineTuneMaxWait)
}

type modelArtifact struct {
	ModelID         string               `json:"model_id"`
	JobID           string               `json:"job_id"`
	CreatedAt       string               `json:"created_at"`
	FinishedAt      string               `json:"finished_at,omitempty"`
	BaseModel       string               `json:"base_model"`
	Status          string               `json:"status"`
	TrainingFile    string               `json:"training_file"`
	Hyperparameters *llm.Hyperparameters `json:"hyperparameters,omitempty"`
	TrainedTokens   int64                `json:"trained_tokens,omitempty"`
}

// SaveModelArtifact writes a JSON description of a finished job under the
// artifacts dir so the model ID survives outside the provider.
func (m *Manager) SaveModelArtifact(job *llm.FineTuningJob) (string, error) {
	dir := m.cfg.ArtifactsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifacts dir: %w", err)
	}

	info := modelArtifact{
		ModelID:         job.FineTunedModel,
		JobID:           job.ID,
		CreatedAt:       m.now().UTC().Format(time.RFC3339),
		BaseModel:       job.Model,
		Status:          job.Status,
		TrainingFile:    job.TrainingFile,
		Hyperparameters: job.Hyperparameters,
		TrainedTokens:   job.TrainedTokens,
	}
	if job.FinishedAt > 0 {
		info.FinishedAt = time.Unix(job.FinishedAt, 0).UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode model artifact: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("model_info_%s.json", m.now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write model artifact: %w", err)
	}

	m.log.Info("model artifact saved", "model_id", job.FineTunedModel, "path", path)
	return path, nil
}

// ListFineTunedModels returns the provider's models with the fine-tuned
// prefix.
func (m *Manager) ListFineTunedModels(ctx context.Context) ([]llm.Model, error) {
	models, err := m.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	tuned := make([]llm.Model, 0, len(models))
	for _, mod := range models {
		if strings.HasPrefix(mod.ID, "ft:") {
			tuned = append(tuned, mod)
		}
	}
	m.log.Info("fine-tuned models retrieved", "count", len(tuned))
	return tuned, nil
}

// record best-effort upserts the job into the local history store.
func (m *Manager) record(ctx context.Context, job *llm.FineTuningJob) {
	if m.store == nil {
		return
	}
	if err := m.store.Upsert(ctx, job); err != nil {
		m.log.Warn("recording fine-tuning job failed", "job_id", job.ID, "error", err)
	}
}
