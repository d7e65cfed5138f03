package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/msto63/vaani/internal/settings"
	"github.com/msto63/vaani/internal/translate"
	"github.com/msto63/vaani/pkg/core/config"
	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	cfg          *config.Config
	settingsMu   sync.Mutex
	userSettings settings.File
	settingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "vaani",
	Short: "Vaani - scan, translate, speak",
	Long: `Vaani reads printed text aloud in the language you choose.

Photograph or scan a page, pick a target language by name or by voice,
and Vaani translates the text and speaks the result.

Commands:
  scan       Translate and speak a single image or PDF page
  tui        Interactive terminal assistant
  watch      Translate every file dropped into a folder
  serve      Run the language service (translate, parse-language, speak)
  history    Show recent translations
  doctor     Check external tools and the language service`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, formatError("", err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads config and user settings, then configures logging
func setup() error {
	// .env is optional; it supplies provider API keys for serve
	_ = godotenv.Load()

	var err error
	cfg, err = config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}

	if path, err := settings.DefaultPath(); err == nil {
		settingsPath = path
		if s, err := settings.Load(path); err == nil {
			userSettings = s
			userSettings.Apply(cfg)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring settings %s: %v\n", path, err)
		}
	}

	level := cfg.General.LogLevel
	if verbose {
		level = "debug"
	}
	logCfg := logging.LoggerConfig{
		Level:  level,
		Format: cfg.General.LogFormat,
	}
	if cfg.General.LogFile != "" {
		w, err := openLogFile(cfg.General.LogFile)
		if err != nil {
			return err
		}
		logCfg.AdditionalOutputs = []io.Writer{w}
	}
	logging.Configure(logCfg)
	return nil
}

func openLogFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func rememberChoice(mode translate.Mode, lang string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	userSettings.Remember(mode, lang)
}

// saveSettings persists the latest mode and language, best effort
func saveSettings() {
	if settingsPath == "" {
		return
	}
	settingsMu.Lock()
	s := userSettings
	settingsMu.Unlock()
	if err := settings.Save(settingsPath, s); err != nil {
		printError("could not save settings", err)
	}
}

func printError(msg string, err error) {
	fmt.Fprint(os.Stderr, formatError(msg, err))
}

// formatError renders err with its code and, for user-facing codes, a hint
func formatError(msg string, err error) string {
	line := fmt.Sprintf("Error: %v", err)
	if msg != "" {
		line = fmt.Sprintf("Error: %s: %v", msg, err)
	}
	if code := vaerr.GetCode(err); code != vaerr.CodeUnknown {
		line += fmt.Sprintf(" [%s]", code)
	}
	line += "\n"
	for _, h := range errorHints {
		if vaerr.HasCode(err, h.code) {
			line += "Hint: " + h.text + "\n"
			break
		}
	}
	return line
}

var errorHints = []struct {
	code vaerr.Code
	text string
}{
	{vaerr.CodeNoTextFound, "retake the photo flat and in good light"},
	{vaerr.CodeServiceUnreachable, "check translation.base_url and that the service is running (vaani doctor)"},
	{vaerr.CodeNotRecognized, "pass --lang instead of --voice"},
}
