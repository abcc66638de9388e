package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// CommandResult is the outcome of a finished command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports a zero exit status.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Runner executes an external command in dir. A non-zero exit is reported in
// the result, not as an error; the error is reserved for commands that could
// not run at all.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is appended to the inherited environment.
	Env []string
}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, err
	}
}
