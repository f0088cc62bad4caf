package platform

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/skiffvpn/tunnelctl/internal/execution"
	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

// linuxPlatform drives wg-quick(8) and wg(8) from PATH. It is the
// reference Capability implementation.
type linuxPlatform struct {
	runner  execution.Runner
	log     *logger.Logger
	timeout time.Duration
}

func newLinux(runner execution.Runner, log *logger.Logger, timeout time.Duration) *linuxPlatform {
	return &linuxPlatform{
		runner:  runner,
		log:     log.WithComponent("platform.linux"),
		timeout: timeout,
	}
}

func (p *linuxPlatform) ToolAvailable() bool {
	_, ok := p.runner.LookPath("wg-quick")
	return ok
}

func (p *linuxPlatform) BringUp(ctx context.Context, path string, secrets ...string) (string, error) {
	if !p.ToolAvailable() {
		return "", errors.NewToolNotInstalled("wg-quick")
	}

	// wg-quick names the interface after the config file.
	iface := interfaceNameFromPath(path)

	res, err := p.runner.Run(ctx, "wg-quick", []string{"up", path}, p.timeout)
	if err != nil {
		if errors.IsKind(err, errors.KindTimeout) {
			// A killed wg-quick skips its own rollback trap; don't
			// leave a half-created interface behind.
			rollbackAfterTimeout(p.runner, p.log, p.timeout, "wg-quick", []string{"down", path}, iface)
		}
		return "", err
	}
	if res.ExitCode != 0 {
		p.log.Error("wg-quick up failed", "interface", iface, "exit_code", res.ExitCode)
		return "", classifyHelperFailure(res, iface, secrets)
	}

	p.log.Info("interface up", "interface", iface)
	return iface, nil
}

func (p *linuxPlatform) BringDown(ctx context.Context, iface, artifactPath string) error {
	if !p.ToolAvailable() {
		return errors.NewToolNotInstalled("wg-quick")
	}

	// A config outside wg-quick's search path must be torn down by
	// path, not by interface name.
	target := iface
	if artifactPath != "" {
		target = artifactPath
	}

	res, err := p.runner.Run(ctx, "wg-quick", []string{"down", target}, p.timeout)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		mapped := classifyHelperFailure(res, iface, nil)
		if errors.IsKind(mapped, errors.KindInterfaceNotFound) {
			p.log.Debug("interface already absent", "interface", iface)
		} else {
			p.log.Error("wg-quick down failed", "interface", iface, "exit_code", res.ExitCode)
		}
		return mapped
	}

	p.log.Info("interface down", "interface", iface)
	return nil
}

func (p *linuxPlatform) QueryStatus(ctx context.Context, iface string) wgtypes.ConnectionStatus {
	return queryWgStatus(ctx, p.runner, p.timeout, "wg", iface)
}

// interfaceNameFromPath derives the wg-quick interface name from a
// config file path.
func interfaceNameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".conf")
}

// queryWgStatus implements the status probe shared by the unix
// platforms. With an interface name it checks that interface; without
// one it reports the first interface wg knows about.
func queryWgStatus(ctx context.Context, runner execution.Runner, timeout time.Duration, wgCmd, iface string) wgtypes.ConnectionStatus {
	if iface == "" {
		res, err := runner.Run(ctx, wgCmd, []string{"show", "interfaces"}, timeout)
		if err != nil || res.ExitCode != 0 {
			return wgtypes.ConnectionStatus{}
		}
		names := strings.Fields(res.Stdout)
		if len(names) == 0 {
			return wgtypes.ConnectionStatus{}
		}
		iface = names[0]
	}

	res, err := runner.Run(ctx, wgCmd, []string{"show", iface}, timeout)
	if err != nil || res.ExitCode != 0 {
		return wgtypes.ConnectionStatus{}
	}

	return wgtypes.ConnectionStatus{
		Connected:  true,
		ConfigName: iface,
		Interface:  iface,
	}
}
