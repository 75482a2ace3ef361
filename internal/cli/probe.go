package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-downloader-bot/internal/extract"
	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Show title, duration and file name for a link without downloading",
	Args:  cobra.ExactArgs(1),
	RunE:  probeRun,
}

func probeRun(cmd *cobra.Command, args []string) error {
	extractor := extract.NewYTDLP(cfg.DownloadDir, cfg.AudioQuality)
	info, err := extractor.Probe(cmd.Context(), model.SourceReference(args[0]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "title:    %s\n", info.Title)
	fmt.Fprintf(out, "duration: %s\n", platform.FormatDuration(info.DurationSeconds))
	fmt.Fprintf(out, "file:     %s\n", platform.SanitizeName(info.Title))
	return nil
}
