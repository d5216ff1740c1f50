package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gescholt/globtim/internal/objective"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the registered objective functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDIM\tSTATIONARY\tDESCRIPTION")
		for _, name := range objective.Names() {
			fn, err := objective.Lookup(name)
			if err != nil {
				return err
			}
			dim := "any"
			if fn.Dim != 0 {
				dim = fmt.Sprintf("%d", fn.Dim)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", fn.Name, dim, len(fn.Stationary), fn.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}
