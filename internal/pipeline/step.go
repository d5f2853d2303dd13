package pipeline

import "time"

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState records the outcome of one pipeline step.
type StepState struct {
	Name      string
	Status    StepStatus
	StartTime time.Time
	EndTime   time.Time
	Rows      int
	Error     error
}

// NewStepState creates a pending step.
func NewStepState(name string) *StepState {
	return &StepState{Name: name, Status: StepStatusPending}
}

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	s.StartTime = time.Now()
	s.Status = StepStatusActive
}

// Complete marks the step as completed with the number of rows it produced.
func (s *StepState) Complete(rows int) {
	s.EndTime = time.Now()
	s.Status = StepStatusCompleted
	s.Rows = rows
}

// Fail marks the step as failed with the given error
func (s *StepState) Fail(err error) {
	s.EndTime = time.Now()
	s.Status = StepStatusFailed
	s.Error = err
}

// Duration returns how long the step ran, or zero while it is running.
func (s *StepState) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
