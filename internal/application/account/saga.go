package account

import (
	"context"
	"fmt"
)

// Step is one forward action of a saga and the action that undoes it.
// Compensate may be nil for steps with nothing to undo.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError reports which step stopped the saga.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// Saga runs steps in order. When a step fails, the compensations of every
// step that already completed run in reverse order, then the step's error is
// returned as a *StepError.
type Saga struct {
	steps []Step

	// OnCompensationError is called for every compensation that fails.
	// Failed compensations are not retried.
	OnCompensationError func(ctx context.Context, step string, err error)
	// OnCompensated is called for every compensation that succeeds.
	OnCompensated func(ctx context.Context, step string)
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.rollback(context.WithoutCancel(ctx), s.steps[:i])
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}

func (s *Saga) rollback(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			if s.OnCompensationError != nil {
				s.OnCompensationError(ctx, step.Name, err)
			}
			continue
		}
		if s.OnCompensated != nil {
			s.OnCompensated(ctx, step.Name)
		}
	}
}
