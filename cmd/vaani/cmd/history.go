package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/msto63/vaani/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent translations",
	RunE:  runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent translations, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(store *history.Store) error {
		entries := store.Entries()
		if len(entries) == 0 {
			fmt.Println("No translations yet.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLANG\tCREATED\tTEXT")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Language, e.CreatedAt, history.Preview(e.Text, 50))
		}
		return w.Flush()
	})
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the full text of one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q", args[0])
		}
		return withHistory(cmd, func(store *history.Store) error {
			e, err := store.Get(id)
			if err != nil {
				return err
			}
			fmt.Printf("[%s] %s\n\n%s\n", e.Language, e.CreatedAt, e.Text)
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd, func(store *history.Store) error {
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			return nil
		})
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func withHistory(cmd *cobra.Command, fn func(*history.Store) error) error {
	backend, err := history.Open(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return err
	}
	defer backend.Close()

	store := history.NewStore(backend)
	store.LoadAll(cmd.Context())
	return fn(store)
}
