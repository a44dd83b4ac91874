package runner

import (
	"context"
	"strings"
	"sync"
)

// Response is a canned outcome for a Scripted command.
type Response struct {
	Stdout   string
	ExitCode int
}

// Call records one Scripted invocation.
type Call struct {
	Command string
	Env     []string
}

// Value returns the ValueEnv entry passed to the call, if any.
func (c Call) Value() (string, bool) {
	for _, entry := range c.Env {
		if value, ok := strings.CutPrefix(entry, ValueEnv+"="); ok {
			return value, true
		}
	}
	return "", false
}

// Scripted is an in-memory Runner for tests. Unknown commands fail with exit
// status 127, like a shell that cannot find them.
type Scripted struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
	hook      func(Call)
}

func NewScripted() *Scripted {
	return &Scripted{responses: make(map[string]Response)}
}

// On sets the response for command and returns the runner for chaining.
func (s *Scripted) On(command string, response Response) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[command] = response
	return s
}

// Echo makes command succeed with stdout.
func (s *Scripted) Echo(command, stdout string) *Scripted {
	return s.On(command, Response{Stdout: stdout})
}

// Fail makes command exit with status 1.
func (s *Scripted) Fail(command string) *Scripted {
	return s.On(command, Response{ExitCode: 1})
}

// OnCall installs a hook invoked synchronously for every call.
func (s *Scripted) OnCall(hook func(Call)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

func (s *Scripted) Run(_ context.Context, command string, env ...string) (Result, error) {
	if strings.TrimSpace(command) == "" {
		return Result{}, ErrNoCommand
	}
	call := Call{Command: command, Env: append([]string(nil), env...)}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	response, ok := s.responses[command]
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if !ok {
		response = Response{ExitCode: 127}
	}
	result := Result{Stdout: response.Stdout, ExitCode: response.ExitCode}
	if response.ExitCode != 0 {
		return result, &ExitError{Command: command, ExitCode: response.ExitCode}
	}
	return result, nil
}

// Calls returns a copy of every recorded call.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls of command.
func (s *Scripted) CallsTo(command string) []Call {
	var matched []Call
	for _, call := range s.Calls() {
		if call.Command == command {
			matched = append(matched, call)
		}
	}
	return matched
}
