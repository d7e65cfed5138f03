package cmd

import (
	"context"

	"github.com/msto63/vaani/internal/pipeline"
	"github.com/msto63/vaani/internal/status"
	"github.com/msto63/vaani/internal/tui"
	"github.com/spf13/cobra"
)

var tuiStatus bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive assistant",
	Long: `Starts the terminal assistant: enter the path of a photo or PDF,
pick a page and a language, and listen to the translation.

With --status (or status.enabled) the session is published as a
websocket feed that "vaani status" can follow.`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiStatus, "status", false, "publish the session on the status feed")

	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, appOptions{Mode: userSettings.TranslateMode()})
	if err != nil {
		return err
	}
	defer a.Close()

	if tuiStatus || cfg.Status.Enabled {
		hub := status.NewHub()
		status.Attach(hub, a.orchestrator, a.dispatcher)
		go func() {
			if err := status.ListenAndServe(ctx, cfg.Status.Listen, hub); err != nil {
				a.logger.Error("Status feed stopped", "error", err)
			}
		}()
	}

	// Remember the latest choice when the user quits
	a.orchestrator.Subscribe(func(s pipeline.Session) {
		if s.TargetLanguage != "" && s.ResultText != "" {
			rememberChoice(s.Mode, s.TargetLanguage)
		}
	})
	defer saveSettings()

	return tui.Run(tui.Options{
		Ctx:          ctx,
		Orchestrator: a.orchestrator,
		Dispatcher:   a.dispatcher,
		History:      a.history,
		Languages:    a.languages,
		VoiceEnabled: a.listener != nil,
	})
}
