package proc

import (
	"context"
	"fmt"
)

var _ Runner = (*FakeRunner)(nil)

// FakeRunner is a Runner for tests. It records every command it receives and
// replies with canned results in order. Once the canned results run out it
// keeps returning the last one (or a zero Result when none were queued).
type FakeRunner struct {
	Commands []Command
	Results  []Result
	Errs     []error
}

// Stub queues a canned result for the next recorded invocation.
func (f *FakeRunner) Stub(result Result, err error) *FakeRunner {
	f.Results = append(f.Results, result)
	f.Errs = append(f.Errs, err)
	return f
}

func (f *FakeRunner) Run(_ context.Context, cmd Command) (Result, error) {
	i := len(f.Commands)
	f.Commands = append(f.Commands, cmd)

	if len(f.Results) == 0 {
		return Result{}, nil
	}
	if i >= len(f.Results) {
		i = len(f.Results) - 1
	}
	return f.Results[i], f.Errs[i]
}

// CallCount returns the number of invocations seen so far.
func (f *FakeRunner) CallCount() int {
	return len(f.Commands)
}

// CommandLines renders every recorded invocation, for readable assertions.
func (f *FakeRunner) CommandLines() []string {
	lines := make([]string, len(f.Commands))
	for i, cmd := range f.Commands {
		lines[i] = fmt.Sprint(cmd)
	}
	return lines
}
