package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/msto63/vaani/internal/language"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the supported target languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := language.Default()
		if cfg.Languages.TableFile != "" {
			t, err := language.LoadTable(cfg.Languages.TableFile)
			if err != nil {
				return err
			}
			table = t
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tNATIVE\tVOICE")
		for _, l := range table.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Code, l.Name, l.Native, l.VoiceTag())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
