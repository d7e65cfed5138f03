package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msto63/vaani/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchLang   string
	watchMode   string
	watchSettle string
)

var watchCmd = &cobra.Command{
	Use:   "watch [DIR]",
	Short: "Translate and speak every file dropped into a folder",
	Long: `Watches DIR (or watch.dir from the config) for new images and PDFs,
for example the output folder of a document scanner. Each file is read,
translated into the watch language and spoken, one at a time.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchLang, "lang", "l", "", "target language (default from config)")
	watchCmd.Flags().StringVarP(&watchMode, "mode", "m", "", "translation mode: translate or summary")
	watchCmd.Flags().StringVar(&watchSettle, "settle", "", "quiet period before a new file is read, e.g. 500ms")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.Watch.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no folder to watch: pass DIR or set watch.dir")
	}

	lang := cfg.Watch.Language
	if watchLang != "" {
		lang = watchLang
	}
	modeName := cfg.Watch.Mode
	if watchMode != "" {
		modeName = watchMode
	}
	mode, err := parseModeFlag(modeName, false)
	if err != nil {
		return err
	}
	if watchSettle != "" {
		if err := cfg.Watch.Settle.UnmarshalText([]byte(watchSettle)); err != nil {
			return fmt.Errorf("invalid settle duration: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{Mode: mode})
	if err != nil {
		return err
	}
	defer a.Close()

	if l, ok := a.languages.Find(lang); ok {
		fmt.Fprintf(os.Stderr, "Watching %s, speaking %s\n", dir, l.Label())
	}

	folder := watch.NewFolder(dir, cfg.Watch.Settle.Duration)
	return folder.Run(ctx, watch.Pipeline(a.orchestrator, lang, mode, a.dispatcher.Wait))
}
