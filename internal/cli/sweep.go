package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale files from the artifact directory and exit",
	Args:  cobra.NoArgs,
	RunE:  sweepRun,
}

func sweepRun(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := store.Sweep(time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range report.Removed {
		fmt.Fprintf(out, "removed %s\n", path)
	}
	fmt.Fprintf(out, "scanned %d, removed %d (%d partial), failed %d\n",
		report.Scanned, len(report.Removed), report.Partials, report.Failed)
	return nil
}
