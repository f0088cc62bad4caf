// Package wgtypes defines the value types shared between the tunnel
// manager, the platform layer, and callers. None of these types carry
// behavior beyond formatting helpers.
package wgtypes

import "strings"

// TunnelConfig is a complete WireGuard tunnel configuration. Instances
// are immutable once constructed; the manager copies them on ingest.
// PrivateKey and PeerPublicKey are opaque and must never appear in logs
// or error messages.
type TunnelConfig struct {
	// Name is a display label. It is not unique across config sources.
	Name string `json:"name"`

	PrivateKey    string `json:"private_key"`
	PeerPublicKey string `json:"public_key"`

	// Endpoint is the peer's host:port.
	Endpoint string `json:"endpoint"`
	// LocalAddress is the interface address in CIDR form.
	LocalAddress string `json:"address"`
	// AllowedIPs is a CIDR or comma-separated CIDR list.
	AllowedIPs string `json:"allowed_ips"`

	// DNS is optional; comma-separated resolver list.
	DNS string `json:"dns,omitempty"`
	// KeepaliveInterval is the PersistentKeepalive value in seconds.
	// Zero means absent.
	KeepaliveInterval int `json:"keepalive_interval,omitempty"`
}

// Redacted returns a copy safe for logging: key material replaced, all
// other fields intact.
func (c TunnelConfig) Redacted() TunnelConfig {
	out := c
	if out.PrivateKey != "" {
		out.PrivateKey = "[redacted]"
	}
	if out.PeerPublicKey != "" {
		out.PeerPublicKey = "[redacted]"
	}
	return out
}

// EndpointHost returns the host portion of the endpoint, or the whole
// endpoint when no port separator is present.
func (c TunnelConfig) EndpointHost() string {
	if i := strings.LastIndex(c.Endpoint, ":"); i >= 0 {
		return c.Endpoint[:i]
	}
	return c.Endpoint
}

// ConnectionStatus is a point-in-time snapshot of the tunnel state. It
// may be stale the instant after it is produced. When Connected is
// false both optional fields are empty; when true both are set.
type ConnectionStatus struct {
	Connected  bool   `json:"connected"`
	ConfigName string `json:"current_config,omitempty"`
	Interface  string `json:"interface,omitempty"`
}

// State identifies where the manager's state machine currently is.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}
