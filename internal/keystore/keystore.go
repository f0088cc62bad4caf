// Package keystore stores tunnel private keys in the OS keyring so
// key material never lands in the config file or the journal.
package keystore

import (
	"errors"

	"github.com/zalando/go-keyring"

	apperrors "github.com/skiffvpn/tunnelctl/internal/shared/errors"
)

// serviceName is the identifier used in the system keyring.
const serviceName = "tunnelctl"

// Store saves the private key for a named config.
func Store(configName, privateKey string) error {
	if configName == "" {
		return apperrors.NewMissingField("config name")
	}
	if privateKey == "" {
		return apperrors.NewMissingField("private key")
	}

	if err := keyring.Set(serviceName, configName, privateKey); err != nil {
		return apperrors.Wrap(apperrors.KindExecutionFailed, "keyring store failed", err)
	}
	return nil
}

// Get retrieves the private key for a named config.
func Get(configName string) (string, error) {
	if configName == "" {
		return "", apperrors.NewMissingField("config name")
	}

	key, err := keyring.Get(serviceName, configName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", apperrors.New(apperrors.KindNotFound, "no stored key for this config")
		}
		return "", apperrors.Wrap(apperrors.KindExecutionFailed, "keyring lookup failed", err)
	}
	return key, nil
}

// Delete removes the private key for a named config. Deleting a key
// that was never stored is not an error.
func Delete(configName string) error {
	if configName == "" {
		return apperrors.NewMissingField("config name")
	}

	if err := keyring.Delete(serviceName, configName); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.KindExecutionFailed, "keyring delete failed", err)
	}
	return nil
}

// Exists reports whether a key is stored for a named config.
func Exists(configName string) bool {
	_, err := Get(configName)
	return err == nil
}
