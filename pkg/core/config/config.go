package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrNoConfigFile is returned by LoadFromEnv when no file exists at any default location
var ErrNoConfigFile = errors.New("no config file found, set VAANI_CONFIG or create configs/config.toml")

// Config holds the complete application configuration
type Config struct {
	General   GeneralConfig   `toml:"general"`
	Service   ServiceConfig   `toml:"service"`
	Capture   CaptureConfig   `toml:"capture"`
	Speech    SpeechConfig    `toml:"speech"`
	Listen    ListenConfig    `toml:"listen"`
	History   HistoryConfig   `toml:"history"`
	Languages LanguagesConfig `toml:"languages"`
	Server    ServerConfig    `toml:"server"`
	Status    StatusConfig    `toml:"status"`
	Watch     WatchConfig     `toml:"watch"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name"`
	DataDir   string `toml:"data_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`
}

// ServiceConfig points at the remote language service
type ServiceConfig struct {
	BaseURL          string   `toml:"base_url"`
	TranslateTimeout Duration `toml:"translate_timeout"`
	ParseTimeout     Duration `toml:"parse_timeout"`
	SpeakTimeout     Duration `toml:"speak_timeout"`
}

// CaptureConfig holds OCR and paginator settings
type CaptureConfig struct {
	Languages      string   `toml:"languages"`
	RenderScale    float64  `toml:"render_scale"`
	MinTextLength  int      `toml:"min_text_length"`
	MinImageWidth  int      `toml:"min_image_width"`
	TessdataPrefix string   `toml:"tessdata_prefix"`
	PdfinfoPath    string   `toml:"pdfinfo_path"`
	PdftoppmPath   string   `toml:"pdftoppm_path"`
	Timeout        Duration `toml:"timeout"`
}

// SpeechConfig holds audio dispatch settings
type SpeechConfig struct {
	NeutralLanguage string  `toml:"neutral_language"`
	LocalThreshold  int     `toml:"local_threshold"`
	Rate            float64 `toml:"rate"`
	LocalVoice      string  `toml:"local_voice"`
	Player          string  `toml:"player"`
	PlayerCommand   string  `toml:"player_command"`
}

// ListenConfig holds voice selection settings
type ListenConfig struct {
	Enabled         bool     `toml:"enabled"`
	WhisperURL      string   `toml:"whisper_url"`
	Language        string   `toml:"language"`
	SampleRate      int      `toml:"sample_rate"`
	VADMode         int      `toml:"vad_mode"`
	SilenceDuration Duration `toml:"silence_duration"`
	MinSpeech       Duration `toml:"min_speech"`
	MaxDuration     Duration `toml:"max_duration"`
	Timeout         Duration `toml:"timeout"`
}

// HistoryConfig holds history persistence settings
type HistoryConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// LanguagesConfig allows extending the built-in language table
type LanguagesConfig struct {
	TableFile string `toml:"table_file"`
}

// ServerConfig holds the language service server settings
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"`
	ReadTimeout  Duration        `toml:"read_timeout"`
	WriteTimeout Duration        `toml:"write_timeout"`
	Provider     string          `toml:"provider"`
	Model        string          `toml:"model"`
	CacheTTL     Duration        `toml:"cache_ttl"`
	Providers    ProvidersConfig `toml:"providers"`
	Piper        PiperConfig     `toml:"piper"`
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	Ollama    ProviderConfig `toml:"ollama"`
	OpenAI    ProviderConfig `toml:"openai"`
	Anthropic ProviderConfig `toml:"anthropic"`
}

// ProviderConfig holds a single provider's configuration
type ProviderConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// PiperConfig holds the speech synthesizer used by /speak
type PiperConfig struct {
	BinaryPath string            `toml:"binary_path"`
	ModelDir   string            `toml:"model_dir"`
	Voices     map[string]string `toml:"voices"`
}

// StatusConfig holds the websocket status feed settings
type StatusConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// WatchConfig holds hot folder settings
type WatchConfig struct {
	Dir      string   `toml:"dir"`
	Language string   `toml:"language"`
	Mode     string   `toml:"mode"`
	Settle   Duration `toml:"settle"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from VAANI_CONFIG or the default locations
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("VAANI_CONFIG")
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, ErrNoConfigFile
	}

	return Load(path)
}

// LoadOrDefault loads path when set, otherwise the environment lookup,
// and falls back to defaults when no file exists anywhere
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := LoadFromEnv()
	if errors.Is(err, ErrNoConfigFile) {
		cfg = Default()
		cfg.expandEnvVars()
		return cfg, nil
	}
	return cfg, err
}

// DefaultPaths lists the locations searched by LoadFromEnv
func DefaultPaths() []string {
	return []string{
		"./configs/config.toml",
		"./config.toml",
		filepath.Join(os.Getenv("HOME"), ".config/vaani/config.toml"),
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "Vaani"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "$HOME/.local/share/vaani"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Service
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Service.TranslateTimeout.Duration == 0 {
		c.Service.TranslateTimeout.Duration = 45 * time.Second
	}
	if c.Service.ParseTimeout.Duration == 0 {
		c.Service.ParseTimeout.Duration = 15 * time.Second
	}
	if c.Service.SpeakTimeout.Duration == 0 {
		c.Service.SpeakTimeout.Duration = 30 * time.Second
	}

	// Capture
	if c.Capture.Languages == "" {
		c.Capture.Languages = "eng+hin+tel+tam+kan+mar+guj+ben+pan+mal"
	}
	if c.Capture.RenderScale == 0 {
		c.Capture.RenderScale = 1.5
	}
	if c.Capture.MinTextLength == 0 {
		c.Capture.MinTextLength = 5
	}
	if c.Capture.MinImageWidth == 0 {
		c.Capture.MinImageWidth = 1000
	}
	if c.Capture.PdfinfoPath == "" {
		c.Capture.PdfinfoPath = "pdfinfo"
	}
	if c.Capture.PdftoppmPath == "" {
		c.Capture.PdftoppmPath = "pdftoppm"
	}
	if c.Capture.Timeout.Duration == 0 {
		c.Capture.Timeout.Duration = 60 * time.Second
	}

	// Speech
	if c.Speech.NeutralLanguage == "" {
		c.Speech.NeutralLanguage = "en"
	}
	if c.Speech.LocalThreshold == 0 {
		c.Speech.LocalThreshold = 100
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = 1.0
	}
	if c.Speech.LocalVoice == "" {
		c.Speech.LocalVoice = "auto"
	}
	if c.Speech.Player == "" {
		c.Speech.Player = "auto"
	}

	// Listen
	if c.Listen.WhisperURL == "" {
		c.Listen.WhisperURL = "http://127.0.0.1:9000"
	}
	if c.Listen.Language == "" {
		c.Listen.Language = "en"
	}
	if c.Listen.SampleRate == 0 {
		c.Listen.SampleRate = 16000
	}
	if c.Listen.VADMode == 0 {
		c.Listen.VADMode = 2
	}
	if c.Listen.SilenceDuration.Duration == 0 {
		c.Listen.SilenceDuration.Duration = 1200 * time.Millisecond
	}
	if c.Listen.MinSpeech.Duration == 0 {
		c.Listen.MinSpeech.Duration = 300 * time.Millisecond
	}
	if c.Listen.MaxDuration.Duration == 0 {
		c.Listen.MaxDuration.Duration = 8 * time.Second
	}
	if c.Listen.Timeout.Duration == 0 {
		c.Listen.Timeout.Duration = 20 * time.Second
	}

	// History
	if c.History.Backend == "" {
		c.History.Backend = "sqlite"
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.General.DataDir, "vaani.db")
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 120 * time.Second
	}
	if c.Server.Provider == "" {
		c.Server.Provider = "ollama"
	}
	if c.Server.CacheTTL.Duration == 0 {
		c.Server.CacheTTL.Duration = 30 * time.Minute
	}
	if c.Server.Providers.Ollama.BaseURL == "" {
		c.Server.Providers.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Server.Providers.Ollama.Model == "" {
		c.Server.Providers.Ollama.Model = "qwen2.5:7b"
	}
	if c.Server.Providers.OpenAI.APIKey == "" {
		c.Server.Providers.OpenAI.APIKey = "$OPENAI_API_KEY"
	}
	if c.Server.Providers.OpenAI.Model == "" {
		c.Server.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Server.Providers.Anthropic.APIKey == "" {
		c.Server.Providers.Anthropic.APIKey = "$ANTHROPIC_API_KEY"
	}
	if c.Server.Providers.Anthropic.Model == "" {
		c.Server.Providers.Anthropic.Model = "claude-3-5-haiku-latest"
	}
	if c.Server.Piper.BinaryPath == "" {
		c.Server.Piper.BinaryPath = "piper"
	}
	if c.Server.Piper.ModelDir == "" {
		c.Server.Piper.ModelDir = filepath.Join(c.General.DataDir, "voices")
	}

	// Status
	if c.Status.Listen == "" {
		c.Status.Listen = "127.0.0.1:8765"
	}

	// Watch
	if c.Watch.Language == "" {
		c.Watch.Language = "hi"
	}
	if c.Watch.Mode == "" {
		c.Watch.Mode = "translate"
	}
	if c.Watch.Settle.Duration == 0 {
		c.Watch.Settle.Duration = 500 * time.Millisecond
	}
}

// expandEnvVars expands environment variables in path and secret fields
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.History.Path = os.ExpandEnv(c.History.Path)
	c.Languages.TableFile = os.ExpandEnv(c.Languages.TableFile)
	c.Capture.TessdataPrefix = os.ExpandEnv(c.Capture.TessdataPrefix)
	c.Server.Providers.OpenAI.APIKey = os.ExpandEnv(c.Server.Providers.OpenAI.APIKey)
	c.Server.Providers.Anthropic.APIKey = os.ExpandEnv(c.Server.Providers.Anthropic.APIKey)
	c.Server.Piper.ModelDir = os.ExpandEnv(c.Server.Piper.ModelDir)
	c.Watch.Dir = os.ExpandEnv(c.Watch.Dir)
}

// ServerAddress returns host:port of the language service server
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StatusURL returns the websocket URL of the status feed
func (c *Config) StatusURL() string {
	addr := c.Status.Listen
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "ws://" + addr + "/ws/status"
}
