// Package api defines the wire types exchanged with the remote config
// directory service.
package api

import "github.com/skiffvpn/tunnelctl/pkg/wgtypes"

// RemoteConfigDescriptor identifies one selectable configuration in a
// directory listing. It is produced by the directory service and never
// mutated by this application.
type RemoteConfigDescriptor struct {
	// ID is stable and unique within one listing.
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Endpoint string `json:"endpoint"`
}

// ListConfigsResponse is the directory's listing payload.
type ListConfigsResponse struct {
	Configs []RemoteConfigDescriptor `json:"configs"`
}

// FetchConfigResponse is the directory's payload for a single config.
type FetchConfigResponse struct {
	Config wgtypes.TunnelConfig `json:"config"`
}

// ErrorResponse is the directory's error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
