package core

// Scheduler decides execution order of stages and steps
type Scheduler struct{}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// GetNextSteps returns steps for the current stage
func (s *Scheduler) GetNextSteps(pipeline *Pipeline, stageIndex int) []Step {
	if stageIndex < 0 || stageIndex >= len(pipeline.Stages) {
		return nil
	}
	return pipeline.Stages[stageIndex].Steps
}
