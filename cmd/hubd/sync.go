package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle now",
	Long: `Run one reconciliation cycle: fetch the remote repository list when
credentials are configured, pull repositories that are behind, and clone
repositories that only exist remotely.

Without GitHub credentials, the cycle only refreshes local repositories.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "pull every repository even when not behind")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.logger.Sync()
	}()

	app.loadOrBuild(ctx)

	report, err := app.reg.Syncer().SyncNow(ctx, syncForce)
	if err != nil {
		return err
	}

	fmt.Printf("Sync %s\n", report.ID)
	fmt.Printf("  checked: %d\n", report.ReposChecked)
	fmt.Printf("  pulled:  %d\n", report.ReposPulled)
	fmt.Printf("  cloned:  %d\n", report.ReposCloned)
	if len(report.Errors) > 0 {
		fmt.Printf("  errors:  %d\n", len(report.Errors))
		for _, e := range report.Errors {
			if e.Repo != "" {
				fmt.Printf("    %s: %s\n", e.Repo, e.Message)
			} else {
				fmt.Printf("    %s\n", e.Message)
			}
		}
	}
	return nil
}
