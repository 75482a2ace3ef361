package extract

import (
	"context"
	"fmt"
	"log"

	"github.com/lrstanley/go-ytdlp"
)

// Install makes sure a yt-dlp binary is available, downloading it into the
// user cache when it is missing from PATH
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	log.Printf("INFO: yt-dlp is available")
	return nil
}
