package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailchat/internal/credential"
	"github.com/nhle/mailchat/internal/model"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{{"plain"}, {"serve"}, {"token", "set"}, {"token", "clear"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	opts := &options{
		configPath: filepath.Join(t.TempDir(), "missing.yaml"),
		mode:       model.ServiceModeLocal,
		logLevel:   "debug",
	}

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, model.ServiceModeLocal, cfg.Service.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	opts := &options{
		configPath: filepath.Join(t.TempDir(), "missing.yaml"),
		mode:       "carrier-pigeon",
	}

	_, err := loadConfig(opts)
	assert.ErrorContains(t, err, "service.mode")
}

func TestSecretKey(t *testing.T) {
	key, err := secretKey("imap")
	require.NoError(t, err)
	assert.Equal(t, credential.KeyIMAPPassword, key)

	_, err = secretKey("ssh")
	assert.Error(t, err)
}
