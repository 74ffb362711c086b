package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eudatnat/harvest-cli/internal/meta"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate dataset metadata files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var failed int
		for _, path := range args {
			m, err := meta.LoadFile(path)
			if err != nil {
				fmt.Printf("FAIL %s: %v\n", path, err)
				failed++
				continue
			}
			fmt.Printf("OK   %s (%s)\n", path, m.Name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
