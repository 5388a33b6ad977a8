package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "SCANNER_DEVICE",
		"POSE_ENGINE_URL", "SCANNER_LOG_LEVEL", "SCANNER_EXPORT_DIR",
	} {
		t.Setenv(key, "")
	}
	// .env ищется в рабочем каталоге
	chdir(t, t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scanner.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2.0, cfg.Accumulator.Increment)
	require.Equal(t, 3.0, cfg.Accumulator.Decay)
	require.Equal(t, 1024, cfg.Capture.MaxDimension)
	require.Equal(t, 85, cfg.Capture.JPEGQuality)
	require.Equal(t, 50, cfg.Estimator.MaxAttempts)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[scanner]
frame_interval = "50ms"

[rules]
visibility_threshold = 0.7

[estimator]
url = "http://pose:9000"
poll_interval = "250ms"

[camera]
device = "video2"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50*time.Millisecond, cfg.Scanner.FrameInterval.Std())
	require.Equal(t, 0.7, cfg.Rules.VisibilityThreshold)
	require.Equal(t, 0.15, cfg.Rules.FrontMinShoulderSpan)
	require.Equal(t, "http://pose:9000", cfg.Estimator.URL)

	scan := cfg.ScanConfig()
	require.Equal(t, "video2", scan.DeviceID)
	require.Equal(t, 250*time.Millisecond, scan.Engine.PollInterval)
	require.Equal(t, 50*time.Millisecond, scan.Loop.FrameInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[camera]
device = "video0"
`)
	t.Setenv("SCANNER_DEVICE", "video4")
	t.Setenv("TELEGRAM_TOKEN", "secret")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("POSE_ENGINE_URL", "http://localhost:1")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "video4", cfg.Camera.Device)
	require.Equal(t, "secret", cfg.Telegram.Token)
	require.Equal(t, int64(12345), cfg.Telegram.ChatID)
	require.Equal(t, "http://localhost:1", cfg.Estimator.URL)
}

func TestLoad_RejectsBadChatID(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[scanner]
frame_rate = 30
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_DecayMustExceedIncrement(t *testing.T) {
	cfg := Default()
	cfg.Accumulator.Decay = cfg.Accumulator.Increment
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "accumulator.decay")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Capture.JPEGQuality = 0
	cfg.Estimator.URL = ""
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "capture.jpeg_quality")
	require.Contains(t, err.Error(), "estimator.url")
}

func TestEncode_RedactsToken(t *testing.T) {
	cfg := Default()
	cfg.Telegram.Token = "secret"

	data, err := cfg.Redacted().Encode()
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret")
	require.Contains(t, string(data), "frame_interval")
	require.Contains(t, string(data), "33ms")
	require.Equal(t, "secret", cfg.Telegram.Token)
}

// chdir меняет рабочий каталог на время теста (замена t.Chdir для Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
