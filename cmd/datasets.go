package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets in the metadata directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := initRegistry()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCATEGORY\tCOUNTRY\tFORMAT\tGEOCODE\tTRANSLATE")
		for _, name := range reg.Names() {
			m, _ := reg.Get(name)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%t\n",
				m.Name, m.Category, m.Country, m.Source.Format,
				m.Geocode.Enabled, m.Translate.Enabled,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
