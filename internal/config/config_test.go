package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFrom(t.TempDir(), "")
	req.NoError(err)
	req.Equal("dev", cfg.Env)
	req.Equal("release", cfg.Mode)
	req.Equal(8081, cfg.Port)
	req.Equal(5*time.Minute, cfg.KickSilent)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(60*time.Second, cfg.PongWait())
	req.Equal(int64(4096), cfg.ReadLimit)
	req.Empty(cfg.NicknameRule)
}

func TestLoadFrom_ProductionPort(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "prod")
	require.NoError(t, err)
	require.Equal(t, 80, cfg.Port)
}

func TestLoadFrom_File(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := "mode: debug\nport: 9000\nkick_silent: 30s\nnickname_rule: required,max=36\n"
	req.NoError(os.WriteFile(filepath.Join(dir, "config", "config.dev.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadFrom(dir, "dev")
	req.NoError(err)
	req.Equal("debug", cfg.Mode)
	req.Equal(9000, cfg.Port)
	req.Equal(30*time.Second, cfg.KickSilent)
	req.Equal("required,max=36", cfg.NicknameRule)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("CHAT_KICK_SILENT", "45s")
	t.Setenv("CHAT_PORT", "7070")

	cfg, err := LoadFrom(t.TempDir(), "dev")
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, cfg.KickSilent)
	require.Equal(t, 7070, cfg.Port)
}

func TestLoadFrom_Invalid(t *testing.T) {
	t.Setenv("CHAT_KICK_SILENT", "0s")

	_, err := LoadFrom(t.TempDir(), "dev")
	require.ErrorIs(t, err, ErrBadConfig)
}
