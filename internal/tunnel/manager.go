// Package tunnel owns the connection state machine. A Manager is the
// only surface the calling application sees; one instance lives in the
// composition root and tracks at most one active tunnel.
package tunnel

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/skiffvpn/tunnelctl/internal/platform"
	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/internal/wgconf"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

// activeConnection records the one live tunnel. The config artifact at
// artifactPath must remain on disk until teardown; the helper reads it
// again on the way down.
type activeConnection struct {
	iface        string
	configName   string
	artifactPath string
}

// Options configures a Manager.
type Options struct {
	// Interface is the requested interface name; the platform may
	// assign a different effective name (utunN on darwin). Defaults
	// to "wg0".
	Interface string
	// ArtifactDir is where config artifacts are created. Defaults to
	// DefaultArtifactDir.
	ArtifactDir string
	// Bus receives lifecycle events when set.
	Bus *Bus
}

// DefaultArtifactDir returns the runtime directory for config
// artifacts.
func DefaultArtifactDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".tunnelctl", "run")
	}
	return filepath.Join(os.TempDir(), "tunnelctl")
}

// ArtifactPath returns the artifact location for an interface within
// dir. The path is deterministic so a process that did not bring the
// tunnel up can still resolve the artifact for teardown.
func ArtifactPath(dir, iface string) string {
	return filepath.Join(dir, iface+".conf")
}

// Manager sequences tunnel lifecycle operations against the platform
// capability and tracks connection state.
//
// Apply and Disconnect serialize against each other; Status may run
// concurrently with either and always observes a consistent snapshot.
type Manager struct {
	platform platform.Capability
	log      *logger.Logger
	opts     Options

	// opMu serializes the mutating operations end to end, including
	// the blocking helper invocation.
	opMu sync.Mutex
	// stateMu guards state and active together so readers never see a
	// torn combination.
	stateMu sync.RWMutex
	state   wgtypes.State
	active  *activeConnection
}

// NewManager creates a Manager in the Disconnected state.
func NewManager(cap platform.Capability, log *logger.Logger, opts Options) *Manager {
	if log == nil {
		log = logger.NewDevelopment("tunnel")
	}
	if opts.Interface == "" {
		opts.Interface = "wg0"
	}
	if opts.ArtifactDir == "" {
		opts.ArtifactDir = DefaultArtifactDir()
	}

	return &Manager{
		platform: cap,
		log:      log.WithComponent("tunnel"),
		opts:     opts,
		state:    wgtypes.StateDisconnected,
	}
}

// Ready reports whether the platform helper is available on this host.
func (m *Manager) Ready() bool {
	return m.platform.ToolAvailable()
}

// State returns the current state tag.
func (m *Manager) State() wgtypes.State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// Apply validates cfg, materializes a scoped config artifact, and
// brings the tunnel up. A tunnel that is already active is never
// replaced silently; callers must disconnect first.
func (m *Manager) Apply(ctx context.Context, cfg wgtypes.TunnelConfig) (wgtypes.ConnectionStatus, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if st := m.State(); st != wgtypes.StateDisconnected {
		m.log.Warn("apply rejected", "state", st.String(), "config", cfg.Name)
		return m.snapshot(), errors.New(errors.KindAlreadyConnected,
			"a tunnel is already active; disconnect first")
	}

	if err := wgconf.Validate(cfg); err != nil {
		// Validation failures never reach the platform layer and
		// never create an artifact.
		return m.snapshot(), err
	}

	m.setState(wgtypes.StateConnecting, nil)
	m.log.Info("bringing tunnel up", "config", cfg.Name, "interface", m.opts.Interface)

	artifactPath, cleanup, err := m.writeArtifact(cfg)
	if err != nil {
		m.setState(wgtypes.StateDisconnected, nil)
		m.publishError(cfg.Name, "", err)
		return m.snapshot(), err
	}

	iface, err := m.platform.BringUp(ctx, artifactPath, cfg.PrivateKey, cfg.PeerPublicKey)
	if err != nil {
		cleanup()
		m.setState(wgtypes.StateDisconnected, nil)
		m.log.Error("bring up failed", "config", cfg.Name, "kind", string(errors.KindOf(err)))
		m.publishError(cfg.Name, "", err)
		return m.snapshot(), err
	}

	m.setState(wgtypes.StateConnected, &activeConnection{
		iface:        iface,
		configName:   cfg.Name,
		artifactPath: artifactPath,
	})
	m.log.Info("tunnel up", "config", cfg.Name, "interface", iface)
	m.publish(EventUp, cfg.Name, iface)

	return m.snapshot(), nil
}

// Disconnect tears the active tunnel down. Calling it with no active
// tunnel is a successful no-op. An interface that has already vanished
// counts as success. On any other failure the connection stays tracked
// as Connected: the interface's real state is unknown and the caller
// may retry.
func (m *Manager) Disconnect(ctx context.Context) (wgtypes.ConnectionStatus, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.stateMu.RLock()
	active := m.active
	m.stateMu.RUnlock()

	if active == nil {
		m.log.Debug("disconnect with no active tunnel")
		return wgtypes.ConnectionStatus{}, nil
	}

	m.setState(wgtypes.StateDisconnecting, active)
	m.log.Info("bringing tunnel down", "config", active.configName, "interface", active.iface)

	err := m.platform.BringDown(ctx, active.iface, active.artifactPath)
	if err != nil && !errors.IsKind(err, errors.KindInterfaceNotFound) {
		m.setState(wgtypes.StateConnected, active)
		m.log.Error("bring down failed", "interface", active.iface, "kind", string(errors.KindOf(err)))
		m.publishError(active.configName, active.iface, err)
		return m.snapshot(), err
	}

	m.removeArtifact(active.artifactPath)
	m.setState(wgtypes.StateDisconnected, nil)
	m.log.Info("tunnel down", "config", active.configName, "interface", active.iface)
	m.publish(EventDown, active.configName, active.iface)

	return wgtypes.ConnectionStatus{}, nil
}

// Status returns a point-in-time snapshot. With an active connection
// it asks the platform about the tracked interface; otherwise it
// reports nothing active. It never mutates state and never fails.
func (m *Manager) Status(ctx context.Context) wgtypes.ConnectionStatus {
	m.stateMu.RLock()
	active := m.active
	connected := m.state == wgtypes.StateConnected
	m.stateMu.RUnlock()

	if active == nil || !connected {
		return wgtypes.ConnectionStatus{}
	}

	st := m.platform.QueryStatus(ctx, active.iface)
	if st.Connected {
		st.ConfigName = active.configName
	}
	return st
}

// snapshot projects the tracked state without consulting the platform.
func (m *Manager) snapshot() wgtypes.ConnectionStatus {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.state != wgtypes.StateConnected || m.active == nil {
		return wgtypes.ConnectionStatus{}
	}
	return wgtypes.ConnectionStatus{
		Connected:  true,
		ConfigName: m.active.configName,
		Interface:  m.active.iface,
	}
}

func (m *Manager) setState(state wgtypes.State, active *activeConnection) {
	m.stateMu.Lock()
	m.state = state
	m.active = active
	m.stateMu.Unlock()
}

// writeArtifact serializes cfg to the deterministic per-interface
// path, named so the helper derives the requested interface name from
// it. Mode 0600: the file carries private key material. A stale
// artifact from a crashed run is overwritten.
func (m *Manager) writeArtifact(cfg wgtypes.TunnelConfig) (string, func(), error) {
	if err := os.MkdirAll(m.opts.ArtifactDir, 0o700); err != nil {
		return "", nil, errors.Wrap(errors.KindExecutionFailed, "failed to create artifact directory", err)
	}

	path := ArtifactPath(m.opts.ArtifactDir, m.opts.Interface)
	if err := os.WriteFile(path, []byte(wgconf.Serialize(cfg)), 0o600); err != nil {
		return "", nil, errors.Wrap(errors.KindExecutionFailed, "failed to write config artifact", err)
	}

	cleanup := func() { m.removeArtifact(path) }
	return path, cleanup, nil
}

func (m *Manager) removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.log.Warn("failed to remove config artifact", "path", path, "error", err)
	}
}

func (m *Manager) publish(eventType, configName, iface string) {
	if m.opts.Bus == nil {
		return
	}
	m.opts.Bus.Publish(eventType, Event{ConfigName: configName, Interface: iface})
}

func (m *Manager) publishError(configName, iface string, err error) {
	if m.opts.Bus == nil {
		return
	}
	m.opts.Bus.Publish(EventError, Event{
		ConfigName: configName,
		Interface:  iface,
		ErrorKind:  string(errors.KindOf(err)),
		Err:        err.Error(),
	})
}
