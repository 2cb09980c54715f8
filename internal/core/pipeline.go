package core

import (
	"errors"
	"fmt"
	"strings"

	"forcestatus/internal/forcestatus"
)

// Pipeline represents the entire CI/CD pipeline
type Pipeline struct {
	Agent     string            `yaml:"agent"`               // Name of pipeline (from pipeline.yaml)
	Env       map[string]string `yaml:"env,omitempty"`       // Variables expanded into step commands and conditions
	Flyweight bool              `yaml:"flyweight,omitempty"` // Run on a one-off executor instead of a regular slot
	Stages    []Stage           `yaml:"stages"`              // Ordered list of stages
}

// Stage represents a group of steps
// Stages run sequentially (stage1 --> stage2 --> stage3)
type Stage struct {
	Name  string `yaml:"name"`  // Stage name (e.g. "build", "test")
	Steps []Step `yaml:"steps"` // steps inside stage
}

// Step represents a single instruction inside a stage.
// Exactly one of Run or Force is set.
type Step struct {
	Run   string              `yaml:"run,omitempty"`   // Command to execute (e.g. "go build ./..")
	Force *forcestatus.Config `yaml:"force,omitempty"` // Force the build result
}

// ErrInvalidPipeline is wrapped by every Validate failure.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Name describes the step in logs.
func (s Step) Name() string {
	if s.Force != nil {
		return "force " + s.Force.Result
	}
	return s.Run
}

// Validate checks the pipeline before it is scheduled.
func (p *Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidPipeline)
	}
	for i, stage := range p.Stages {
		if strings.TrimSpace(stage.Name) == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrInvalidPipeline, i+1)
		}
		for j, step := range stage.Steps {
			hasRun := strings.TrimSpace(step.Run) != ""
			switch {
			case hasRun && step.Force != nil:
				return fmt.Errorf("%w: stage %q step %d sets both run and force", ErrInvalidPipeline, stage.Name, j+1)
			case !hasRun && step.Force == nil:
				return fmt.Errorf("%w: stage %q step %d sets neither run nor force", ErrInvalidPipeline, stage.Name, j+1)
			case step.Force != nil:
				if _, err := step.Force.ParsedResult(); err != nil {
					return fmt.Errorf("%w: stage %q step %d: %w", ErrInvalidPipeline, stage.Name, j+1, err)
				}
			}
		}
	}
	return nil
}
