// Package saga runs a named, ordered list of steps that share one state value.
// A failing step stops the flow and its error names the step.
package saga

import (
	"context"
	"fmt"
	"roomly/pkg/logger"
	"time"
)

type Step[S any] struct {
	Name    string
	Execute func(ctx context.Context, state *S) error
}

func NewStep[S any](name string, execute func(ctx context.Context, state *S) error) Step[S] {
	return Step[S]{
		Name:    name,
		Execute: execute,
	}
}

type Flow[S any] struct {
	Name  string
	Steps []Step[S]
}

func NewFlow[S any](name string, steps ...Step[S]) *Flow[S] {
	return &Flow[S]{Name: name, Steps: steps}
}

// StepError wraps the error of the step that stopped a flow.
type StepError struct {
	Flow string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s step failed: %v", e.Flow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes the steps in order. Steps must be safe to run again from the
// start because the surrounding transaction may retry the whole flow.
func (f *Flow[S]) Run(ctx context.Context, log *logger.Logger, state *S) error {
	for _, step := range f.Steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Flow: f.Name, Step: step.Name, Err: err}
		}

		start := time.Now()
		err := step.Execute(ctx, state)
		if err != nil {
			log.Debug("saga step failed",
				"flow", f.Name,
				"step", step.Name,
				"duration", time.Since(start),
				"error", err,
			)
			return &StepError{Flow: f.Name, Step: step.Name, Err: err}
		}
		log.Debug("saga step completed",
			"flow", f.Name,
			"step", step.Name,
			"duration", time.Since(start),
		)
	}
	return nil
}
