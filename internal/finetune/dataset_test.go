package finetune

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/model"
)

func TestBuildDataset(t *testing.T) {
	examples, err := BuildDataset()
	if err != nil {
		t.Fatalf("BuildDataset: %v", err)
	}
	if len(examples) != 10 {
		t.Fatalf("examples = %d, want 10 (two per theme)", len(examples))
	}

	systems := strings.Builder{}
	for i, ex := range examples {
		if len(ex.Messages) != 3 {
			t.Fatalf("example %d has %d messages, want 3", i, len(ex.Messages))
		}
		roles := []string{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant}
		for j, want := range roles {
			if ex.Messages[j].Role != want {
				t.Errorf("example %d message %d role = %q, want %q", i, j, ex.Messages[j].Role, want)
			}
		}

		var answer struct {
			Destinations []json.RawMessage `json:"destinations"`
		}
		if err := json.Unmarshal([]byte(ex.Messages[2].Content), &answer); err != nil {
			t.Errorf("example %d assistant content is not json: %v", i, err)
		} else if len(answer.Destinations) == 0 {
			t.Errorf("example %d has no destinations in the answer", i)
		}
		systems.WriteString(ex.Messages[0].Content)
	}

	for _, theme := range model.Themes() {
		if !strings.Contains(systems.String(), strings.ToLower(string(theme))) {
			t.Errorf("no system prompt covers theme %q", theme)
		}
	}

	if got := examples[0].Messages[1].Content; got != "Generate 3 Sports destinations around the world" {
		t.Errorf("first user prompt = %q", got)
	}
}

func TestWriteDataset(t *testing.T) {
	m := newTestManager(t, &fakeJobsClient{})
	dir := filepath.Join(t.TempDir(), "training")

	path, count, err := m.WriteDataset(dir)
	if err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
	if want := "travel_destinations_training_20240501_120000.jsonl"; filepath.Base(path) != want {
		t.Errorf("file name = %q, want %q", filepath.Base(path), want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != count {
		t.Fatalf("jsonl lines = %d, want %d", len(lines), count)
	}
	for i, line := range lines {
		var ex Example
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			t.Fatalf("line %d is not valid json: %v", i, err)
		}
		if len(ex.Messages) != 3 {
			t.Errorf("line %d messages = %d, want 3", i, len(ex.Messages))
		}
	}
}
