// Package execution wraps external process invocation behind a small
// interface so the platform layer can be tested without a real helper
// binary on the host.
package execution

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
)

// Result captures one completed invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes external commands. Implementations must kill the
// process when the timeout expires; a hang is never acceptable.
//
// Key material must never be passed through args: it would be visible
// in process listings. Callers hand secrets to helpers via config
// files only.
type Runner interface {
	Run(ctx context.Context, name string, args []string, timeout time.Duration) (Result, error)
	LookPath(name string) (string, bool)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	log *logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(log *logger.Logger) *ExecRunner {
	if log == nil {
		log = logger.NewDevelopment("execution")
	}
	return &ExecRunner{log: log}
}

// Run invokes name with args and waits for completion, stdout and
// stderr captured separately. A non-zero exit is not an error here;
// the caller classifies it from the Result. The returned error is
// reserved for failures to run at all: missing binary, timeout,
// cancelled context.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("running helper", "command", name, "args", strings.Join(args, " "))

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		r.log.Warn("helper timed out", "command", name, "elapsed", elapsed)
		return res, errors.NewTimeout(name)
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			r.log.Debug("helper exited non-zero", "command", name, "exit_code", res.ExitCode, "elapsed", elapsed)
			return res, nil
		}
		return res, errors.Wrap(errors.KindExecutionFailed, "failed to start "+name, err)
	}

	r.log.Debug("helper completed", "command", name, "elapsed", elapsed)
	return res, nil
}

// LookPath reports whether name resolves to an executable on PATH.
func (r *ExecRunner) LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}
