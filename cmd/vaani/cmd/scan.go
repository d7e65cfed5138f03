package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/msto63/vaani/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	scanPage    int
	scanLang    string
	scanVoice   bool
	scanSummary bool
	scanMode    string
	scanCopy    bool
	scanNoWait  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan FILE",
	Short: "Translate and speak an image or PDF page",
	Long: `Reads the text of FILE, translates it and speaks the result.

Choose the target language with --lang (code or name) or say it with
--voice. Without either, the remembered language is used.

Examples:
  vaani scan letter.jpg --lang te
  vaani scan notice.pdf --page 2 --lang Hindi --summary
  vaani scan form.png --voice`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVarP(&scanPage, "page", "p", 1, "page number for PDF files")
	scanCmd.Flags().StringVarP(&scanLang, "lang", "l", "", "target language code or name")
	scanCmd.Flags().BoolVar(&scanVoice, "voice", false, "say the target language instead of passing --lang")
	scanCmd.Flags().BoolVarP(&scanSummary, "summary", "s", false, "explain the text simply instead of translating it")
	scanCmd.Flags().StringVarP(&scanMode, "mode", "m", "", "translation mode: translate or summary")
	scanCmd.Flags().BoolVarP(&scanCopy, "copy", "c", false, "copy the result to the clipboard")
	scanCmd.Flags().BoolVar(&scanNoWait, "no-wait", false, "exit without waiting for playback to finish")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	modeName := scanMode
	if !cmd.Flags().Changed("mode") {
		modeName = userSettings.Mode
	}
	mode, err := parseModeFlag(modeName, scanSummary)
	if err != nil {
		return err
	}

	lang := scanLang
	if lang == "" && !scanVoice {
		lang = userSettings.LastLanguage
	}
	if lang == "" && !scanVoice {
		return fmt.Errorf("no target language: pass --lang or --voice")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{TypedPhrases: true, Mode: mode})
	if err != nil {
		return err
	}
	defer a.Close()

	if scanVoice {
		fmt.Fprintln(os.Stderr, "Say the target language, e.g. \"Translate to Telugu\"")
	}

	session, err := pipeline.Run(ctx, a.orchestrator, pipeline.Job{
		File:     pipeline.File{Name: filepath.Base(path), Data: data},
		Page:     scanPage - 1,
		Language: lang,
		Voice:    scanVoice,
		Mode:     mode,
	})
	if session.ResultText != "" {
		fmt.Println(session.ResultText)
	}
	if err != nil && session.State != pipeline.StatePlaying {
		waitPlayback(ctx, a)
		return err
	}
	if err == nil {
		rememberChoice(session.Mode, session.TargetLanguage)
		saveSettings()
		if scanCopy {
			if cerr := clipboard.WriteAll(session.ResultText); cerr != nil {
				printError("could not copy to clipboard", cerr)
			}
		}
	}

	if !scanNoWait {
		waitPlayback(ctx, a)
	}
	return err
}

// waitPlayback blocks until the current audio has finished or ctx ends
func waitPlayback(ctx context.Context, a *app) {
	if err := a.dispatcher.Wait(ctx); err != nil && ctx.Err() == nil {
		a.logger.Warn("Playback failed", "error", err)
	}
}
