package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/pkg/api"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, logger.NewDevelopment("test"))
}

func TestListConfigs(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/configs", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(api.ListConfigsResponse{
			Configs: []api.RemoteConfigDescriptor{
				{ID: "ams-1", Name: "Amsterdam 1", Location: "NL", Endpoint: "ams1.example.com:51820"},
				{ID: "fra-2", Name: "Frankfurt 2", Location: "DE", Endpoint: "fra2.example.com:51820"},
			},
		})
	}))

	configs, err := client.ListConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "ams-1", configs[0].ID)
	assert.Equal(t, "Frankfurt 2", configs[1].Name)
}

func TestFetchConfig(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/configs/ams-1", r.URL.Path)
		json.NewEncoder(w).Encode(api.FetchConfigResponse{
			Config: wgtypes.TunnelConfig{
				Name:          "ams-1",
				PrivateKey:    "priv",
				PeerPublicKey: "pub",
				Endpoint:      "ams1.example.com:51820",
				LocalAddress:  "10.0.0.2/32",
				AllowedIPs:    "0.0.0.0/0, ::/0",
			},
		})
	}))

	cfg, err := client.FetchConfig(context.Background(), "ams-1")
	require.NoError(t, err)
	assert.Equal(t, "ams-1", cfg.Name)
	assert.Equal(t, "ams1.example.com:51820", cfg.Endpoint)
}

func TestFetchConfigNotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{Code: "not_found", Message: "unknown config"})
	}))

	_, err := client.FetchConfig(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestRetryOnServiceUnavailable(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(api.ListConfigsResponse{
			Configs: []api.RemoteConfigDescriptor{{ID: "ams-1"}},
		})
	}))

	configs, err := client.ListConfigs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, configs, 1)
}

func TestServerErrorIncludesMessage(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(api.ErrorResponse{Code: "internal", Message: "database offline"})
	}))

	_, err := client.ListConfigs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database offline")
	assert.Contains(t, err.Error(), "500")
}
