package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msto63/vaani/internal/status"
	"github.com/spf13/cobra"
)

var statusURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Follow the live status feed",
	Long: `Connects to the status feed of a running "vaani tui --status" or
"vaani serve" and prints every state change, playback change and service
request until interrupted.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "", "websocket URL (default from status.listen)")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	url := statusURL
	if url == "" {
		url = cfg.StatusURL()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Following %s\n", url)
	return status.Follow(ctx, url, printEvent)
}

func printEvent(e status.Event) {
	ts := e.Time.Format("15:04:05")
	switch e.Type {
	case status.TypeService:
		fmt.Printf("%s  service  %-16s %s\n", ts, e.State, e.Notice)
	case status.TypeAudio:
		fmt.Printf("%s  audio    %s\n", ts, e.Audio)
	default:
		line := fmt.Sprintf("%s  %-8s %-12s audio=%s", ts, e.Type, e.State, e.Audio)
		if e.Notice != "" {
			line += "  " + e.Notice
		}
		fmt.Println(line)
	}
}
