package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := NewToolNotInstalled("wg-quick")
	assert.Equal(t, KindToolNotInstalled, KindOf(err))
	assert.True(t, IsKind(err, KindToolNotInstalled))
	assert.False(t, IsKind(err, KindTimeout))
}

func TestKindOfWrappedChain(t *testing.T) {
	inner := NewPermissionDenied("bringing up a tunnel")
	wrapped := fmt.Errorf("apply failed: %w", inner)

	assert.Equal(t, KindPermissionDenied, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindPermissionDenied))
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("something else entirely")
	assert.Equal(t, Kind(""), KindOf(err))
	assert.False(t, IsKind(err, KindExecutionFailed))
}

func TestValidationErrorsCarryField(t *testing.T) {
	err := NewMissingField("PrivateKey")
	assert.Equal(t, KindValidation, err.Kind())
	assert.Equal(t, "PrivateKey", err.Field())
	assert.Contains(t, err.Error(), "PrivateKey")

	err = NewInvalidField("Endpoint", "must be host:port")
	assert.Equal(t, "Endpoint", err.Field())
	assert.Contains(t, err.Error(), "must be host:port")
}

func TestExecutionFailedCarriesExitCode(t *testing.T) {
	err := NewExecutionFailed(2, "resolvconf: command not found")
	assert.Equal(t, KindExecutionFailed, err.Kind())
	assert.Equal(t, 2, err.ExitCode())
	assert.Contains(t, err.Error(), "code 2")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("fork/exec: no such file")
	err := Wrap(KindExecutionFailed, "failed to start helper", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to start helper")
	assert.Contains(t, err.Error(), "fork/exec")
}

func TestRedact(t *testing.T) {
	stderr := "bad line: PrivateKey = sEcReTkEy123\nbad line: PublicKey = pEeRkEy456"
	out := Redact(stderr, "sEcReTkEy123", "pEeRkEy456")

	assert.NotContains(t, out, "sEcReTkEy123")
	assert.NotContains(t, out, "pEeRkEy456")
	assert.Contains(t, out, "[redacted]")
	assert.Contains(t, out, "PrivateKey = ")
}

func TestRedactIgnoresEmptySecrets(t *testing.T) {
	assert.Equal(t, "unchanged", Redact("unchanged", ""))
}
