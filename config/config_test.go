package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesAndDefaults(t *testing.T) {
	t.Setenv("SNAPGRAM_JWT_ACCESS_SECRET", "env-access-secret-0123")
	t.Setenv("SNAPGRAM_JWT_REFRESH_SECRET", "env-refresh-secret-0123")
	t.Setenv("SNAPGRAM_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "env-access-secret-0123", cfg.JWT.AccessSecret)
	require.Equal(t, "env-refresh-secret-0123", cfg.JWT.RefreshSecret)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	require.Equal(t, "snapgram", cfg.JWT.Issuer)
	require.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_MissingSecretsFailValidation(t *testing.T) {
	// 不给密钥：配置校验必须在启动期就拦下来
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ShortSecretRejected(t *testing.T) {
	t.Setenv("SNAPGRAM_JWT_ACCESS_SECRET", "short")
	t.Setenv("SNAPGRAM_JWT_REFRESH_SECRET", "also-short")

	_, err := Load()
	require.Error(t, err)
}
