package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string        `yaml:"host" json:"host" env:"MUSIC_ANALYSIS_HOST"`
	Port               int           `yaml:"port" json:"port" env:"MUSIC_ANALYSIS_PORT"`
	ReadTimeout        time.Duration `yaml:"read_timeout" json:"read_timeout" env:"MUSIC_ANALYSIS_READ_TIMEOUT"`
	WriteTimeout       time.Duration `yaml:"write_timeout" json:"write_timeout" env:"MUSIC_ANALYSIS_WRITE_TIMEOUT"`
	MaxHeaderBytes     int           `yaml:"max_header_bytes" json:"max_header_bytes" env:"MUSIC_ANALYSIS_MAX_HEADER_BYTES"`
	MaxMultipartMemory int64         `yaml:"max_multipart_memory" json:"max_multipart_memory" env:"MUSIC_ANALYSIS_MAX_MULTIPART_MEMORY"`
	EnableCORS         bool          `yaml:"enable_cors" json:"enable_cors" env:"MUSIC_ANALYSIS_ENABLE_CORS"`
	GinMode            string        `yaml:"gin_mode" json:"gin_mode" env:"GIN_MODE"`
	TrustedProxies     []string      `yaml:"trusted_proxies" json:"trusted_proxies" env:"MUSIC_ANALYSIS_TRUSTED_PROXIES"`
}

// AnalysisConfig controls the analysis pipeline
type AnalysisConfig struct {
	NoteMode       string        `yaml:"note_mode" json:"note_mode" env:"MUSIC_ANALYSIS_NOTE_MODE"`
	NoteSeed       uint64        `yaml:"note_seed" json:"note_seed" env:"MUSIC_ANALYSIS_NOTE_SEED"`
	WaveformPoints int           `yaml:"waveform_points" json:"waveform_points" env:"MUSIC_ANALYSIS_WAVEFORM_POINTS"`
	FFProbeEnabled bool          `yaml:"ffprobe_enabled" json:"ffprobe_enabled" env:"MUSIC_ANALYSIS_FFPROBE_ENABLED"`
	FFProbePath    string        `yaml:"ffprobe_path" json:"ffprobe_path" env:"MUSIC_ANALYSIS_FFPROBE_PATH"`
	FFProbeTimeout time.Duration `yaml:"ffprobe_timeout" json:"ffprobe_timeout" env:"MUSIC_ANALYSIS_FFPROBE_TIMEOUT"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"MUSIC_ANALYSIS_LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"MUSIC_ANALYSIS_LOG_FORMAT"`
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       30 * time.Second,
			MaxHeaderBytes:     1 << 20, // 1MB
			MaxMultipartMemory: 32 << 20,
			EnableCORS:         true,
			GinMode:            "release",
			TrustedProxies:     []string{},
		},
		Analysis: AnalysisConfig{
			NoteMode:       "random",
			NoteSeed:       0,
			WaveformPoints: 100,
			FFProbeEnabled: false,
			FFProbePath:    "ffprobe",
			FFProbeTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return &ValidationError{Field: "server.read_timeout", Message: "timeouts must not be negative"}
	}
	if c.Server.MaxMultipartMemory <= 0 {
		return &ValidationError{Field: "server.max_multipart_memory", Message: "must be positive"}
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return &ValidationError{Field: "server.gin_mode", Message: "must be one of debug, release, test"}
	}

	switch strings.ToLower(c.Analysis.NoteMode) {
	case "random", "fixed":
	default:
		return &ValidationError{Field: "analysis.note_mode", Message: "must be random or fixed"}
	}
	if c.Analysis.WaveformPoints < 0 || c.Analysis.WaveformPoints > 10000 {
		return &ValidationError{Field: "analysis.waveform_points", Message: "must be between 0 and 10000"}
	}
	if c.Analysis.FFProbeEnabled && c.Analysis.FFProbeTimeout <= 0 {
		return &ValidationError{Field: "analysis.ffprobe_timeout", Message: "must be positive when ffprobe is enabled"}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "off":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of trace, debug, info, warn, error, off"}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ValidationError{Field: "logging.format", Message: "must be text or json"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error in field '" + e.Field + "': " + e.Message
}
