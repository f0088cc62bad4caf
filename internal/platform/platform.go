// Package platform isolates the OS-specific mechanics of creating and
// destroying tunnel interfaces behind a single capability interface.
// The connection manager's state machine is OS-agnostic; only the
// helper invocation and the interface-naming convention live here.
package platform

import (
	"context"
	"strings"
	"time"

	"github.com/skiffvpn/tunnelctl/internal/execution"
	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

// Capability is the four-operation surface every supported OS provides.
type Capability interface {
	// ToolAvailable reports whether the helper tool is resolvable on
	// this host. No side effects.
	ToolAvailable() bool

	// BringUp materializes an interface from the config artifact at
	// path and returns the effective interface name. It blocks until
	// the helper reports success or failure and must not leave a
	// half-created interface behind on failure. Secrets are redacted
	// from any helper output attached to errors.
	BringUp(ctx context.Context, path string, secrets ...string) (string, error)

	// BringDown tears down a named interface. An interface that is
	// already absent yields an interface_not_found error, which
	// callers treat as success. artifactPath, when non-empty, is the
	// config the interface was created from; some helpers need it to
	// tear down an interface whose config lives outside their search
	// path.
	BringDown(ctx context.Context, iface, artifactPath string) error

	// QueryStatus checks a specific interface, or any managed
	// interface when iface is empty. It never fails: when nothing is
	// found, or the helper is unusable, it reports a disconnected
	// snapshot.
	QueryStatus(ctx context.Context, iface string) wgtypes.ConnectionStatus
}

// New selects the capability implementation for goos (normally
// runtime.GOOS). helperTimeout bounds every helper invocation.
func New(goos string, runner execution.Runner, log *logger.Logger, helperTimeout time.Duration) (Capability, error) {
	if log == nil {
		log = logger.NewDevelopment("platform")
	}
	if helperTimeout <= 0 {
		helperTimeout = 30 * time.Second
	}

	switch goos {
	case "linux":
		return newLinux(runner, log, helperTimeout), nil
	case "darwin":
		return newDarwin(runner, log, helperTimeout), nil
	case "windows":
		return newWindows(runner, log, helperTimeout), nil
	default:
		return nil, errors.New(errors.KindPlatformUnsupported, "no tunnel support for "+goos)
	}
}

// classifyHelperFailure maps a helper's non-zero exit onto the error
// taxonomy by inspecting its stderr. Anything unrecognized becomes an
// execution failure carrying the helper's own (redacted) diagnostic.
func classifyHelperFailure(res execution.Result, iface string, secrets []string) error {
	diag := strings.TrimSpace(res.Stderr)
	if diag == "" {
		diag = strings.TrimSpace(res.Stdout)
	}

	switch {
	case containsAny(diag,
		"Operation not permitted",
		"Permission denied",
		"must be run as root",
		"Access is denied"):
		return errors.NewPermissionDenied("tunnel operation")
	case containsAny(diag,
		"No such device",
		"is not a WireGuard interface",
		"does not exist",
		"Unable to access interface"):
		return errors.NewInterfaceNotFound(iface)
	default:
		return errors.NewExecutionFailed(res.ExitCode, errors.Redact(diag, secrets...))
	}
}

// rollbackAfterTimeout makes a best-effort teardown attempt after a
// timed-out bring up. The outcome is logged and otherwise ignored; the
// original timeout error is what the caller sees.
func rollbackAfterTimeout(runner execution.Runner, log *logger.Logger, timeout time.Duration, helper string, args []string, iface string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Warn("bring up timed out, attempting rollback", "interface", iface)
	if _, err := runner.Run(ctx, helper, args, timeout); err != nil {
		log.Warn("rollback failed", "interface", iface, "error", err)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
