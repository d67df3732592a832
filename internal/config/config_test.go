package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxMultipartMemory)
	assert.True(t, cfg.Server.EnableCORS)
	assert.Equal(t, "random", cfg.Analysis.NoteMode)
	assert.Equal(t, uint64(0), cfg.Analysis.NoteSeed)
	assert.Equal(t, 100, cfg.Analysis.WaveformPoints)
	assert.False(t, cfg.Analysis.FFProbeEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())

	assert.NoError(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative timeout", func(c *Config) { c.Server.WriteTimeout = -time.Second }, "server.read_timeout"},
		{"no multipart memory", func(c *Config) { c.Server.MaxMultipartMemory = 0 }, "server.max_multipart_memory"},
		{"bad gin mode", func(c *Config) { c.Server.GinMode = "prod" }, "server.gin_mode"},
		{"bad note mode", func(c *Config) { c.Analysis.NoteMode = "neural" }, "analysis.note_mode"},
		{"negative waveform", func(c *Config) { c.Analysis.WaveformPoints = -1 }, "analysis.waveform_points"},
		{"ffprobe without timeout", func(c *Config) {
			c.Analysis.FFProbeEnabled = true
			c.Analysis.FFProbeTimeout = 0
		}, "analysis.ffprobe_timeout"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestManagerLoadYAMLKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
analysis:
  note_mode: fixed
logging:
  level: debug
`)

	m := NewManager(nil)
	require.NoError(t, m.Load(path))
	cfg := m.Get()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "fixed", cfg.Analysis.NoteMode)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 100, cfg.Analysis.WaveformPoints)
	assert.Equal(t, path, m.Path())
}

func TestManagerLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"analysis": {"waveform_points": 0, "note_seed": 42}}`)

	m := NewManager(nil)
	require.NoError(t, m.Load(path))
	assert.Equal(t, 0, m.Get().Analysis.WaveformPoints)
	assert.Equal(t, uint64(42), m.Get().Analysis.NoteSeed)
}

func TestManagerLoadMissingFileUsesDefaults(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Load(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, DefaultConfig().Server, m.Get().Server)
}

func TestManagerLoadErrors(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(nil)
	assert.Error(t, m.Load(writeFile(t, dir, "config.toml", "port = 1")))
	assert.Error(t, m.Load(writeFile(t, dir, "broken.yaml", "server: [")))

	err := m.Load(writeFile(t, dir, "invalid.yaml", "server:\n  port: 0\n"))
	require.Error(t, err)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	// A failed load leaves the previous configuration in place.
	assert.Equal(t, 8080, m.Get().Server.Port)
}

func TestManagerEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "server:\n  port: 9090\nanalysis:\n  note_mode: fixed\n")

	t.Setenv("MUSIC_ANALYSIS_PORT", "7070")
	t.Setenv("MUSIC_ANALYSIS_NOTE_SEED", "12345")
	t.Setenv("MUSIC_ANALYSIS_FFPROBE_TIMEOUT", "3s")
	t.Setenv("MUSIC_ANALYSIS_ENABLE_CORS", "false")
	t.Setenv("MUSIC_ANALYSIS_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	m := NewManager(nil)
	require.NoError(t, m.Load(path))
	cfg := m.Get()

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "fixed", cfg.Analysis.NoteMode)
	assert.Equal(t, uint64(12345), cfg.Analysis.NoteSeed)
	assert.Equal(t, 3*time.Second, cfg.Analysis.FFProbeTimeout)
	assert.False(t, cfg.Server.EnableCORS)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Server.TrustedProxies)
}

func TestManagerEnvParseError(t *testing.T) {
	t.Setenv("MUSIC_ANALYSIS_PORT", "eighty")

	err := NewManager(nil).Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MUSIC_ANALYSIS_PORT")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "MUSIC_ANALYSIS_LOG_LEVEL=warn\nMUSIC_ANALYSIS_PORT=6060\n")

	// Variables already present in the environment win over the file.
	t.Setenv("MUSIC_ANALYSIS_PORT", "5050")
	t.Setenv("MUSIC_ANALYSIS_LOG_LEVEL", "")
	os.Unsetenv("MUSIC_ANALYSIS_LOG_LEVEL")

	require.NoError(t, LoadEnvFile(path))
	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
	require.NoError(t, LoadEnvFile(""))

	m := NewManager(nil)
	require.NoError(t, m.Load(""))
	assert.Equal(t, "warn", m.Get().Logging.Level)
	assert.Equal(t, 5050, m.Get().Server.Port)
}

func TestManagerWatchers(t *testing.T) {
	m := NewManager(nil)

	var calls int
	var seen *Config
	m.AddWatcher(func(oldConfig, newConfig *Config) {
		calls++
		seen = newConfig
		assert.Equal(t, 8080, oldConfig.Server.Port)
	})

	path := writeFile(t, t.TempDir(), "config.yaml", "server:\n  port: 9191\n")
	require.NoError(t, m.Load(path))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 9191, seen.Server.Port)
}

func TestManagerGetReturnsCopy(t *testing.T) {
	m := NewManager(nil)
	cfg := m.Get()
	cfg.Server.Port = 1
	cfg.Server.TrustedProxies = append(cfg.Server.TrustedProxies, "x")

	assert.Equal(t, 8080, m.Get().Server.Port)
	assert.Empty(t, m.Get().Server.TrustedProxies)
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "analysis:\n  waveform_points: 10\n")

	m := NewManager(nil)
	require.NoError(t, m.Load(path))

	var reloaded atomic.Int32
	m.AddWatcher(func(_, newConfig *Config) {
		if newConfig.Analysis.WaveformPoints == 20 {
			reloaded.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// The watcher may not be registered yet, so keep touching the file.
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("analysis:\n  waveform_points: 20\n"), 0644)
		return reloaded.Load() > 0
	}, 5*time.Second, 300*time.Millisecond)
	assert.Equal(t, 20, m.Get().Analysis.WaveformPoints)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestManagerWatchRequiresPath(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.Watch(context.Background()))
}
