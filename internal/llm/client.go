// Package llm is a minimal client for OpenAI-compatible APIs: chat
// completions, file uploads, and fine-tuning jobs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError is a structured error response from the provider.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to an OpenAI-compatible API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a client. An empty baseURL falls back to the OpenAI endpoint,
// a zero timeout to 30 seconds.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// CompletionRequest asks for a single chat completion.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// Complete returns the assistant text for a chat completion.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var out chatResponse
	err := c.postJSON(ctx, "/chat/completions", chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return out.Choices[0].Message.Content, nil
}

// File statuses reported by the provider.
const (
	FileProcessed = "processed"
	FileError     = "error"
)

// File describes an uploaded file.
type File struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	Bytes     int64  `json:"bytes"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// UploadFile uploads contents under the given filename and purpose
// (fine-tuning uses purpose "fine-tune").
func (c *Client) UploadFile(ctx context.Context, filename string, contents []byte, purpose string) (*File, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", purpose); err != nil {
		return nil, err
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(contents); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/files", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out File
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFile fetches the current state of an uploaded file.
func (c *Client) GetFile(ctx context.Context, id string) (*File, error) {
	var out File
	if err := c.getJSON(ctx, "/files/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fine-tuning job statuses reported by the provider.
const (
	JobValidatingFiles = "validating_files"
	JobQueued          = "queued"
	JobRunning         = "running"
	JobSucceeded       = "succeeded"
	JobFailed          = "failed"
	JobCancelled       = "cancelled"
)

// NumberOrAuto holds a hyperparameter the provider reports either as a
// number or as the string "auto".
type NumberOrAuto string

// UnmarshalJSON accepts both bare numbers and quoted strings.
func (n *NumberOrAuto) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = NumberOrAuto(s)
		return nil
	}
	*n = NumberOrAuto(bytes.TrimSpace(b))
	return nil
}

// MarshalJSON emits numbers unquoted and everything else as a string.
func (n NumberOrAuto) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(n), 64); err == nil {
		return []byte(n), nil
	}
	return json.Marshal(string(n))
}

// Hyperparameters for a fine-tuning job.
type Hyperparameters struct {
	NEpochs                NumberOrAuto `json:"n_epochs,omitempty"`
	BatchSize              NumberOrAuto `json:"batch_size,omitempty"`
	LearningRateMultiplier NumberOrAuto `json:"learning_rate_multiplier,omitempty"`
}

// JobError carries the provider's failure detail for a job.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FineTuningJob is the provider's view of a job.
type FineTuningJob struct {
	ID              string           `json:"id"`
	Model           string           `json:"model"`
	Status          string           `json:"status"`
	FineTunedModel  string           `json:"fine_tuned_model"`
	TrainingFile    string           `json:"training_file"`
	Hyperparameters *Hyperparameters `json:"hyperparameters,omitempty"`
	TrainedTokens   int64            `json:"trained_tokens,omitempty"`
	Error           *JobError        `json:"error,omitempty"`
	CreatedAt       int64            `json:"created_at"`
	FinishedAt      int64            `json:"finished_at,omitempty"`
}

// CreateJobRequest starts a fine-tuning job.
type CreateJobRequest struct {
	Model           string           `json:"model"`
	TrainingFile    string           `json:"training_file"`
	Suffix          string           `json:"suffix,omitempty"`
	Hyperparameters *Hyperparameters `json:"hyperparameters,omitempty"`
}

// CreateFineTuningJob submits a new job.
func (c *Client) CreateFineTuningJob(ctx context.Context, req CreateJobRequest) (*FineTuningJob, error) {
	var out FineTuningJob
	if err := c.postJSON(ctx, "/fine_tuning/jobs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFineTuningJob fetches the current state of a job.
func (c *Client) GetFineTuningJob(ctx context.Context, id string) (*FineTuningJob, error) {
	var out FineTuningJob
	if err := c.getJSON(ctx, "/fine_tuning/jobs/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Model is one entry from the models listing.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
	Created int64  `json:"created"`
}

type modelList struct {
	Data []Model `json:"data"`
}

// ListModels returns all models visible to the API key.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var out modelList
	if err := c.getJSON(ctx, "/models", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseAPIError reads an error body of the form {"error": {...}} and falls
// back to the raw body text.
func parseAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)

	var wrapper struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(b, &wrapper); err == nil && wrapper.Error.Message != "" {
		apiErr.Type = wrapper.Error.Type
		apiErr.Code = wrapper.Error.Code
		apiErr.Message = wrapper.Error.Message
	} else {
		apiErr.Message = string(b)
	}
	return apiErr
}
