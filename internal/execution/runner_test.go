//go:build unix

package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner(logger.NewDevelopment("test"))

	res, err := r.Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	r := NewRunner(logger.NewDevelopment("test"))

	res, err := r.Run(context.Background(), "sh", []string{"-c", "exit 3"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunTimeout(t *testing.T) {
	r := NewRunner(logger.NewDevelopment("test"))

	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", []string{"5"}, 100*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, errors.KindTimeout, errors.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second, "process must be killed at the deadline")
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRunner(logger.NewDevelopment("test"))

	_, err := r.Run(context.Background(), "definitely-not-a-binary-xyz", nil, time.Second)
	require.Error(t, err)
	assert.Equal(t, errors.KindExecutionFailed, errors.KindOf(err))
}

func TestLookPath(t *testing.T) {
	r := NewRunner(logger.NewDevelopment("test"))

	path, ok := r.LookPath("sh")
	assert.True(t, ok)
	assert.NotEmpty(t, path)

	_, ok = r.LookPath("definitely-not-a-binary-xyz")
	assert.False(t, ok)
}
