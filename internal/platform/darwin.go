package platform

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/skiffvpn/tunnelctl/internal/execution"
	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

// Homebrew installs the tools outside the default PATH of GUI-spawned
// processes, so darwin checks well-known locations as well.
var darwinSearchPaths = []string{
	"/usr/local/bin/wg-quick",
	"/opt/homebrew/bin/wg-quick",
	"/usr/bin/wg-quick",
}

// darwinPlatform drives wg-quick on macOS. The kernel assigns utunN
// device names, so the effective interface name is parsed from the
// helper's output rather than taken from the config file name.
type darwinPlatform struct {
	runner  execution.Runner
	log     *logger.Logger
	timeout time.Duration
}

func newDarwin(runner execution.Runner, log *logger.Logger, timeout time.Duration) *darwinPlatform {
	return &darwinPlatform{
		runner:  runner,
		log:     log.WithComponent("platform.darwin"),
		timeout: timeout,
	}
}

// wgQuickPath resolves wg-quick via PATH, then the Homebrew locations.
func (p *darwinPlatform) wgQuickPath() (string, bool) {
	if path, ok := p.runner.LookPath("wg-quick"); ok {
		return path, true
	}
	for _, path := range darwinSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func (p *darwinPlatform) wgPath() string {
	if quick, ok := p.wgQuickPath(); ok {
		return strings.Replace(quick, "wg-quick", "wg", 1)
	}
	return "wg"
}

func (p *darwinPlatform) ToolAvailable() bool {
	_, ok := p.wgQuickPath()
	return ok
}

func (p *darwinPlatform) BringUp(ctx context.Context, path string, secrets ...string) (string, error) {
	quick, ok := p.wgQuickPath()
	if !ok {
		return "", errors.NewToolNotInstalled("wg-quick")
	}

	requested := interfaceNameFromPath(path)

	res, err := p.runner.Run(ctx, quick, []string{"up", path}, p.timeout)
	if err != nil {
		if errors.IsKind(err, errors.KindTimeout) {
			rollbackAfterTimeout(p.runner, p.log, p.timeout, quick, []string{"down", path}, requested)
		}
		return "", err
	}
	if res.ExitCode != 0 {
		p.log.Error("wg-quick up failed", "interface", requested, "exit_code", res.ExitCode)
		return "", classifyHelperFailure(res, requested, secrets)
	}

	iface := requested
	if effective := parseUtunName(res.Stdout + "\n" + res.Stderr); effective != "" {
		iface = effective
	}
	if iface != requested {
		p.log.Info("interface name assigned by kernel", "requested", requested, "effective", iface)
	}

	p.log.Info("interface up", "interface", iface)
	return iface, nil
}

func (p *darwinPlatform) BringDown(ctx context.Context, iface, artifactPath string) error {
	quick, ok := p.wgQuickPath()
	if !ok {
		return errors.NewToolNotInstalled("wg-quick")
	}

	target := iface
	if artifactPath != "" {
		target = artifactPath
	}

	res, err := p.runner.Run(ctx, quick, []string{"down", target}, p.timeout)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return classifyHelperFailure(res, iface, nil)
	}

	p.log.Info("interface down", "interface", iface)
	return nil
}

func (p *darwinPlatform) QueryStatus(ctx context.Context, iface string) wgtypes.ConnectionStatus {
	return queryWgStatus(ctx, p.runner, p.timeout, p.wgPath(), iface)
}

// parseUtunName extracts the kernel-assigned device from wg-quick
// output lines like "Interface for wg0 is utun6".
func parseUtunName(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "Interface for ") {
			continue
		}
		if i := strings.LastIndex(line, " is "); i >= 0 {
			if name := strings.TrimSpace(line[i+len(" is "):]); name != "" {
				return name
			}
		}
	}
	return ""
}
