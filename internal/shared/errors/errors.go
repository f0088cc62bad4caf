// Package errors defines the error taxonomy every layer below the
// connection manager maps into before a failure crosses the manager
// boundary. Callers branch on Kind, never on message text.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a stable error code. The set is closed: new kinds are a
// contract change for every caller that branches on them.
type Kind string

const (
	// KindValidation: a required field is missing or malformed. The
	// caller can fix the input and retry immediately.
	KindValidation Kind = "validation_error"

	// KindToolNotInstalled: the platform helper is not resolvable on
	// this host. Fatal for the operation, not for the process.
	KindToolNotInstalled Kind = "tool_not_installed"

	// KindPermissionDenied: the helper failed for lack of privilege.
	KindPermissionDenied Kind = "permission_denied"

	// KindInterfaceNotFound: the named interface does not exist. Only
	// meaningful for teardown, where it is treated as success.
	KindInterfaceNotFound Kind = "interface_not_found"

	// KindExecutionFailed: the helper ran and reported failure.
	KindExecutionFailed Kind = "execution_failed"

	// KindTimeout: the operation exceeded its bound and was killed.
	KindTimeout Kind = "timeout"

	// KindAlreadyConnected: apply was rejected because a tunnel is
	// active; disconnect first.
	KindAlreadyConnected Kind = "already_connected"

	// KindNotFound: a directory lookup returned no such config.
	KindNotFound Kind = "not_found"

	// KindPlatformUnsupported: no capability implementation exists for
	// the host OS.
	KindPlatformUnsupported Kind = "platform_unsupported"
)

// Error is the single error type carried across component boundaries.
type Error struct {
	kind     Kind
	message  string
	field    string
	exitCode int
	cause    error
}

func (e *Error) Error() string {
	switch {
	case e.field != "":
		return fmt.Sprintf("[%s] %s: %s", e.kind, e.field, e.message)
	case e.cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.kind, e.message, e.cause)
	default:
		return fmt.Sprintf("[%s] %s", e.kind, e.message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the stable code for this error.
func (e *Error) Kind() Kind { return e.kind }

// Field returns the offending field name for validation errors, or "".
func (e *Error) Field() string { return e.field }

// ExitCode returns the helper's exit code for execution failures.
func (e *Error) ExitCode() int { return e.exitCode }

// New creates a taxonomy error with an arbitrary kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap creates a taxonomy error that wraps a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// NewMissingField reports a required config field that was absent after
// a full parse.
func NewMissingField(field string) *Error {
	return &Error{kind: KindValidation, field: field, message: "required field is missing"}
}

// NewInvalidField reports a config field that was present but
// malformed. The message must describe the expected shape, never echo
// key material.
func NewInvalidField(field, message string) *Error {
	return &Error{kind: KindValidation, field: field, message: message}
}

// NewToolNotInstalled reports an unresolvable platform helper. The
// message names what to install.
func NewToolNotInstalled(tool string) *Error {
	return &Error{
		kind:    KindToolNotInstalled,
		message: fmt.Sprintf("%s is not installed; install the WireGuard tools for this platform", tool),
	}
}

// NewPermissionDenied reports a privilege failure from the helper.
func NewPermissionDenied(operation string) *Error {
	return &Error{
		kind:    KindPermissionDenied,
		message: fmt.Sprintf("%s requires elevated privileges", operation),
	}
}

// NewInterfaceNotFound reports a missing interface by name.
func NewInterfaceNotFound(iface string) *Error {
	return &Error{kind: KindInterfaceNotFound, message: fmt.Sprintf("interface %s not found", iface)}
}

// NewExecutionFailed reports a helper that ran and exited non-zero.
// The diagnostic is the helper's own output; callers must sanitize it
// with Redact before passing it in if key material could appear.
func NewExecutionFailed(exitCode int, diagnostic string) *Error {
	return &Error{
		kind:     KindExecutionFailed,
		exitCode: exitCode,
		message:  fmt.Sprintf("helper exited with code %d: %s", exitCode, diagnostic),
	}
}

// NewTimeout reports an operation killed at its deadline.
func NewTimeout(operation string) *Error {
	return &Error{kind: KindTimeout, message: fmt.Sprintf("%s timed out", operation)}
}

// KindOf returns the kind of the first taxonomy error in the chain, or
// "" when the chain carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Redact removes every occurrence of the given secrets from a
// diagnostic string. Helpers occasionally echo config lines back in
// their stderr, so any text that originates outside this process goes
// through here before it is attached to an error.
func Redact(text string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		text = strings.ReplaceAll(text, s, "[redacted]")
	}
	return text
}
