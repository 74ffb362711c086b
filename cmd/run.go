package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/eudatnat/harvest-cli/internal/dataset"
)

var (
	runDatasets []string
	runCategory string
	runFormats  []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the harvest pipeline for selected datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		reg, err := initRegistry()
		if err != nil {
			return err
		}

		engine := dataset.NewEngine(reg, initDeps(st), st)
		results, err := engine.Run(ctx, dataset.RunOpts{
			Datasets: runDatasets,
			Category: runCategory,
			Formats:  runFormats,
		})
		if err != nil {
			return err
		}

		type summary struct {
			Dataset string   `json:"dataset"`
			RunID   string   `json:"run_id,omitempty"`
			Rows    int      `json:"rows"`
			Issues  int      `json:"issues"`
			Outputs []string `json:"outputs,omitempty"`
			Error   string   `json:"error,omitempty"`
		}
		out := make([]summary, 0, len(results))
		failed := 0
		for _, r := range results {
			s := summary{Dataset: r.Dataset, RunID: r.RunID, Outputs: r.Outputs}
			if r.Report != nil {
				s.Rows = r.Report.Rows
				s.Issues = len(r.Report.Issues)
			}
			if r.Err != nil {
				s.Error = r.Err.Error()
				failed++
			}
			out = append(out, s)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}

		if failed > 0 {
			return eris.Errorf("%d of %d datasets failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runDatasets, "dataset", nil, "dataset names to run (default: all)")
	runCmd.Flags().StringVar(&runCategory, "category", "", "run all datasets in a category")
	runCmd.Flags().StringSliceVar(&runFormats, "format", nil, "output format override (csv, json, geojson, xlsx, shp)")
	rootCmd.AddCommand(runCmd)
}
