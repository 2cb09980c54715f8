package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParsePipeline parses YAML content into a validated Pipeline object
func ParsePipeline(data []byte) (*Pipeline, error) {
	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// LoadPipeline reads a pipeline file and returns a Pipeline object
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePipeline(data)
}
