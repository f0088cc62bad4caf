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

// windowsPlatform drives the wireguard.exe service installer. Tunnels
// on Windows run as services named after the config file; there is no
// wg-quick.
type windowsPlatform struct {
	runner  execution.Runner
	log     *logger.Logger
	timeout time.Duration
}

func newWindows(runner execution.Runner, log *logger.Logger, timeout time.Duration) *windowsPlatform {
	return &windowsPlatform{
		runner:  runner,
		log:     log.WithComponent("platform.windows"),
		timeout: timeout,
	}
}

func (p *windowsPlatform) ToolAvailable() bool {
	_, ok := p.runner.LookPath("wireguard.exe")
	return ok
}

func (p *windowsPlatform) BringUp(ctx context.Context, path string, secrets ...string) (string, error) {
	if !p.ToolAvailable() {
		return "", errors.NewToolNotInstalled("wireguard.exe")
	}

	iface := serviceNameFromPath(path)

	res, err := p.runner.Run(ctx, "wireguard.exe", []string{"/installtunnelservice", path}, p.timeout)
	if err != nil {
		if errors.IsKind(err, errors.KindTimeout) {
			rollbackAfterTimeout(p.runner, p.log, p.timeout, "wireguard.exe", []string{"/uninstalltunnelservice", iface}, iface)
		}
		return "", err
	}
	if res.ExitCode != 0 {
		p.log.Error("tunnel service install failed", "interface", iface, "exit_code", res.ExitCode)
		return "", classifyHelperFailure(res, iface, secrets)
	}

	p.log.Info("tunnel service installed", "interface", iface)
	return iface, nil
}

func (p *windowsPlatform) BringDown(ctx context.Context, iface, _ string) error {
	if !p.ToolAvailable() {
		return errors.NewToolNotInstalled("wireguard.exe")
	}

	res, err := p.runner.Run(ctx, "wireguard.exe", []string{"/uninstalltunnelservice", iface}, p.timeout)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return classifyHelperFailure(res, iface, nil)
	}

	p.log.Info("tunnel service removed", "interface", iface)
	return nil
}

func (p *windowsPlatform) QueryStatus(ctx context.Context, iface string) wgtypes.ConnectionStatus {
	return queryWgStatus(ctx, p.runner, p.timeout, "wg.exe", iface)
}

// serviceNameFromPath derives the tunnel service name from a config
// path. Handled locally because Windows path separators differ from
// the host the tests run on.
func serviceNameFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		base = path[i+1:]
	}
	return strings.TrimSuffix(base, ".conf")
}
