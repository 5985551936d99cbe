package finetune

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// JobSpec is a declarative job description, read from a YAML file:
//
//	base_model: gpt-3.5-turbo
//	suffix: travel-destinations-eu
//	n_epochs: 3
//	training_file: file-abc123
type JobSpec struct {
	BaseModel    string `yaml:"base_model"`
	Suffix       string `yaml:"suffix"`
	NEpochs      string `yaml:"n_epochs"`
	TrainingFile string `yaml:"training_file"`
}

// LoadJobSpec reads a job spec from disk.
func LoadJobSpec(path string) (JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return JobSpec{}, fmt.Errorf("read job spec: %w", err)
	}
	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return JobSpec{}, fmt.Errorf("parse job spec %s: %w", path, err)
	}
	return spec, nil
}

// Apply overlays the spec's non-empty fields onto req.
func (s JobSpec) Apply(req JobRequest) JobRequest {
	if s.BaseModel != "" {
		req.BaseModel = s.BaseModel
	}
	if s.Suffix != "" {
		req.Suffix = s.Suffix
	}
	if s.NEpochs != "" {
		req.NEpochs = s.NEpochs
	}
	if s.TrainingFile != "" {
		req.TrainingFileID = s.TrainingFile
	}
	return req
}
