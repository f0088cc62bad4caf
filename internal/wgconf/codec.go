// Package wgconf parses and serializes tunnel configurations in the
// two-section [Interface]/[Peer] text format the wg-quick helper
// consumes. The text format is a compatibility boundary: key names and
// section markers are reproduced exactly.
package wgconf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/pkg/crypto"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

// DefaultAllowedIPs is the unrestricted-route value substituted when a
// config omits AllowedIPs.
const DefaultAllowedIPs = "0.0.0.0/0, ::/0"

const (
	sectionNone      = ""
	sectionInterface = "[Interface]"
	sectionPeer      = "[Peer]"
)

// Parse reads a tunnel configuration from its textual form. Keys are
// case-sensitive and matched only inside their section; unknown keys
// are skipped for forward compatibility. A second [Peer] section
// overwrites the first (last-wins); multi-peer configs are not
// supported. Missing PrivateKey, PublicKey, or Endpoint after a full
// parse is a validation failure.
func Parse(name, text string) (wgtypes.TunnelConfig, error) {
	cfg := wgtypes.TunnelConfig{Name: name}

	section := sectionNone
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			switch line {
			case sectionInterface, sectionPeer:
				section = line
			default:
				section = sectionNone
			}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		switch section {
		case sectionInterface:
			switch key {
			case "PrivateKey":
				cfg.PrivateKey = value
			case "Address":
				cfg.LocalAddress = value
			case "DNS":
				cfg.DNS = value
			}
		case sectionPeer:
			switch key {
			case "PublicKey":
				cfg.PeerPublicKey = value
			case "Endpoint":
				cfg.Endpoint = value
			case "AllowedIPs":
				cfg.AllowedIPs = value
			case "PersistentKeepalive":
				n, err := strconv.Atoi(value)
				if err != nil || n <= 0 {
					return wgtypes.TunnelConfig{}, errors.NewInvalidField("PersistentKeepalive", "must be a positive integer")
				}
				cfg.KeepaliveInterval = n
			}
		}
	}

	for _, required := range []struct {
		field string
		value string
	}{
		{"PrivateKey", cfg.PrivateKey},
		{"PublicKey", cfg.PeerPublicKey},
		{"Endpoint", cfg.Endpoint},
	} {
		if required.value == "" {
			return wgtypes.TunnelConfig{}, errors.NewMissingField(required.field)
		}
	}

	if cfg.AllowedIPs == "" {
		cfg.AllowedIPs = DefaultAllowedIPs
	}

	return cfg, nil
}

// Serialize produces the textual form the helper tool expects. The
// required keys are always emitted; DNS and PersistentKeepalive only
// when set. Parse(cfg.Name, Serialize(cfg)) is field-equal to cfg for
// any valid cfg.
func Serialize(cfg wgtypes.TunnelConfig) string {
	var b strings.Builder

	b.WriteString(sectionInterface + "\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", cfg.PrivateKey)
	fmt.Fprintf(&b, "Address = %s\n", cfg.LocalAddress)
	if cfg.DNS != "" {
		fmt.Fprintf(&b, "DNS = %s\n", cfg.DNS)
	}

	b.WriteString("\n" + sectionPeer + "\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", cfg.PeerPublicKey)
	fmt.Fprintf(&b, "Endpoint = %s\n", cfg.Endpoint)
	fmt.Fprintf(&b, "AllowedIPs = %s\n", cfg.AllowedIPs)
	if cfg.KeepaliveInterval > 0 {
		fmt.Fprintf(&b, "PersistentKeepalive = %d\n", cfg.KeepaliveInterval)
	}

	return b.String()
}

// Validate checks a config the way the connection manager requires
// before it will bring a tunnel up: required fields present and key
// material well-formed. Configs that fail here never reach the
// platform layer.
func Validate(cfg wgtypes.TunnelConfig) error {
	// A nameless config would produce a connected status with no
	// config name, so the label is required here too.
	if cfg.Name == "" {
		return errors.NewMissingField("Name")
	}
	if cfg.PrivateKey == "" {
		return errors.NewMissingField("PrivateKey")
	}
	if cfg.PeerPublicKey == "" {
		return errors.NewMissingField("PublicKey")
	}
	if cfg.Endpoint == "" {
		return errors.NewMissingField("Endpoint")
	}
	if cfg.LocalAddress == "" {
		return errors.NewMissingField("Address")
	}

	if !crypto.ValidKey(cfg.PrivateKey) {
		return errors.NewInvalidField("PrivateKey", "not a valid WireGuard key")
	}
	if !crypto.ValidKey(cfg.PeerPublicKey) {
		return errors.NewInvalidField("PublicKey", "not a valid WireGuard key")
	}
	if !validEndpoint(cfg.Endpoint) {
		return errors.NewInvalidField("Endpoint", "must be host:port")
	}
	if cfg.KeepaliveInterval < 0 {
		return errors.NewInvalidField("PersistentKeepalive", "must be a positive integer")
	}

	return nil
}

func splitKeyValue(line string) (key, value string, ok bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key = strings.TrimSpace(parts[0])
	value = strings.TrimSpace(parts[1])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// validEndpoint checks for a host:port shape with a numeric port.
// Hostnames and bracketed IPv6 literals are both acceptable.
func validEndpoint(endpoint string) bool {
	i := strings.LastIndex(endpoint, ":")
	if i <= 0 || i == len(endpoint)-1 {
		return false
	}
	port, err := strconv.Atoi(endpoint[i+1:])
	return err == nil && port > 0 && port < 65536
}
