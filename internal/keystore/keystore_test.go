package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	apperrors "github.com/skiffvpn/tunnelctl/internal/shared/errors"
)

func TestStoreAndGet(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, Store("office", "private-key-material"))

	got, err := Get("office")
	require.NoError(t, err)
	assert.Equal(t, "private-key-material", got)
	assert.True(t, Exists("office"))
}

func TestGetMissing(t *testing.T) {
	keyring.MockInit()

	_, err := Get("never-stored")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.False(t, Exists("never-stored"))
}

func TestDelete(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, Store("office", "private-key-material"))
	require.NoError(t, Delete("office"))
	assert.False(t, Exists("office"))

	// Deleting again is a no-op
	require.NoError(t, Delete("office"))
}

func TestEmptyArguments(t *testing.T) {
	keyring.MockInit()

	assert.Error(t, Store("", "key"))
	assert.Error(t, Store("office", ""))

	_, err := Get("")
	assert.Error(t, err)
	assert.Error(t, Delete(""))
}
