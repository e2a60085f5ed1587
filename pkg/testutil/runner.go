package testutil

import (
	"context"
	"sync"

	"github.com/pseudomuto/mach/pkg/process"
)

// RecordingRunner is a process.Runner that records every Spec it's given.
type RecordingRunner struct {
	mu    sync.Mutex
	specs []process.Spec

	// Output is replayed through Spec.OnLine on every run
	Output []string

	// Status and Err are returned from every run
	Status int
	Err    error
}

func (r *RecordingRunner) Run(_ context.Context, spec process.Spec) (int, error) {
	r.mu.Lock()
	r.specs = append(r.specs, spec)
	r.mu.Unlock()

	if spec.OnLine != nil {
		for _, line := range r.Output {
			spec.OnLine(line)
		}
	}

	return r.Status, r.Err
}

// Specs returns the recorded specs in call order.
func (r *RecordingRunner) Specs() []process.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]process.Spec(nil), r.specs...)
}

// Calls returns the argument vectors of the recorded runs.
func (r *RecordingRunner) Calls() [][]string {
	specs := r.Specs()
	out := make([][]string, len(specs))
	for i, s := range specs {
		out[i] = s.Args
	}

	return out
}

// Last returns the most recent spec, or the zero Spec when nothing ran.
func (r *RecordingRunner) Last() process.Spec {
	specs := r.Specs()
	if len(specs) == 0 {
		return process.Spec{}
	}

	return specs[len(specs)-1]
}
