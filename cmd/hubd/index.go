package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run a full index build",
	Long: `Scan the configured source directories and wiki root, rebuild the
index, persist it to the cache, and print a summary.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = app.logger.Sync()
	}()

	ix := app.reg.Builder().BuildFull(cmd.Context())
	if ix == nil {
		return fmt.Errorf("index build did not run")
	}

	fmt.Printf("Indexed %d repositories and %d wiki documents\n",
		len(ix.Repositories), len(ix.Documents))
	for _, r := range ix.Repositories {
		line := fmt.Sprintf("  %-30s %s", r.Name, r.Path)
		if len(r.Languages) > 0 {
			line += fmt.Sprintf("  [%s]", r.Languages[0])
		}
		fmt.Println(line)
	}
	return nil
}
