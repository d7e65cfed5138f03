package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/server"
	"github.com/msto63/vaani/internal/status"
	"github.com/spf13/cobra"
)

var (
	serveHost     string
	servePort     int
	serveProvider string
	serveModel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language service",
	Long: `Runs the HTTP language service used by the assistant:

  POST /translate       translate or explain text
  POST /parse-language  map a spoken phrase to a language code
  POST /speak           synthesize speech as WAV
  GET  /health          service health
  GET  /ws/status       live request feed (websocket)

Providers: ollama (default), openai, anthropic. Keys are read from the
config file or from OPENAI_API_KEY / ANTHROPIC_API_KEY (.env supported).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "LLM provider: ollama, openai or anthropic")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name, optionally prefixed with provider:")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveProvider != "" {
		cfg.Server.Provider = serveProvider
	}
	if serveModel != "" {
		cfg.Server.Model = serveModel
	}

	provider, err := server.NewProvider(cfg.Server)
	if err != nil {
		return err
	}

	table := language.Default()
	if cfg.Languages.TableFile != "" {
		if table, err = language.LoadTable(cfg.Languages.TableFile); err != nil {
			return err
		}
	}

	piper := server.NewPiperSpeaker(cfg.Server.Piper.BinaryPath, cfg.Server.Piper.ModelDir, cfg.Server.Piper.Voices)
	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		CacheTTL:     cfg.Server.CacheTTL.Duration,
	}, provider, piper, table, status.NewHub())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Language service on http://%s (provider %s)\n", cfg.ServerAddress(), provider.Name())
	return srv.Run(ctx)
}
