package cli

import (
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ytget/yt-downloader-bot/internal/delivery"
	"github.com/ytget/yt-downloader-bot/internal/download"
	"github.com/ytget/yt-downloader-bot/internal/extract"
	"github.com/ytget/yt-downloader-bot/internal/model"
)

var flagMode string

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download one link into the artifact directory",
	Long: `Download one link into the artifact directory and print the delivery
decision. The deletion deadline is written to the journal when schedule_db is
set so that a running bot picks it up; otherwise the startup sweep removes the
file once it is stale.`,
	Args: cobra.ExactArgs(1),
	RunE: fetchRun,
}

func init() {
	fetchCmd.Flags().StringVarP(&flagMode, "mode", "m", string(model.ModeAudio), model.ModeNames(" | "))
}

func fetchRun(cmd *cobra.Command, args []string) error {
	mode, err := model.ParseMode(flagMode)
	if err != nil {
		return err
	}

	store, err := openStore(true)
	if err != nil {
		return err
	}
	defer store.Close()

	service := download.NewService(extract.NewYTDLP(store.Dir(), cfg.AudioQuality), store, 1)
	artifact, err := service.Dispatch(model.JobRequest{Source: model.SourceReference(args[0]), Mode: mode}).Wait(cmd.Context())
	if err != nil {
		return err
	}
	if store.Pending() > 0 {
		debugf("deletion of %s armed for %s", artifact.Path, artifact.DeleteAt(store.DeleteAfter()))
	}

	decision := delivery.NewPolicy(cfg.SizeThresholdBytes()).Classify(artifact)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path:     %s\n", artifact.Path)
	fmt.Fprintf(out, "size:     %s (%d bytes)\n", humanize.IBytes(uint64(artifact.SizeBytes)), artifact.SizeBytes)
	fmt.Fprintf(out, "delivery: %s\n", decision)
	fmt.Fprintf(out, "delete:   %s\n", artifact.DeleteAt(store.DeleteAfter()).Format("2006-01-02 15:04:05"))
	if cfg.ScheduleDB == "" {
		log.Printf("INFO: no schedule_db configured, %s will be removed by the next sweep", artifact.Name())
	}
	return nil
}
