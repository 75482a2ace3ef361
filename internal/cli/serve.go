package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/ytget/yt-downloader-bot/internal/bot"
	"github.com/ytget/yt-downloader-bot/internal/delivery"
	"github.com/ytget/yt-downloader-bot/internal/download"
	"github.com/ytget/yt-downloader-bot/internal/extract"
	"github.com/ytget/yt-downloader-bot/internal/model"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot (default command)",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	cfg.LogSummary()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.InstallYTDLP {
		if err := extract.Install(ctx); err != nil {
			return err
		}
	}

	store, err := openStore(true)
	if err != nil {
		return fmt.Errorf("preparing artifact directory: %w", err)
	}
	defer store.Close()

	// Startup sweep runs before any job is accepted
	report, err := store.Sweep(time.Now())
	if err != nil {
		return fmt.Errorf("startup sweep: %w", err)
	}
	log.Printf("INFO: startup sweep: scanned %d, removed %d, failed %d", report.Scanned, len(report.Removed), report.Failed)

	recovered, err := store.Recover(ctx)
	if err != nil {
		log.Printf("ERROR: recovering deadlines: %v", err)
	} else if recovered > 0 {
		log.Printf("INFO: re-armed %d pending deletions", recovered)
	}

	extractor := extract.NewYTDLP(store.Dir(), cfg.AudioQuality)
	service := download.NewService(extractor, store, cfg.MaxWorkers)
	service.SetUpdateCallback(func(job model.Job) {
		if job.Status.IsFinished() {
			debugf("job %s %s %s: %s after %s", job.ID, job.Request.Mode, job.GetDisplayTitle(), job.Status, job.Elapsed())
			return
		}
		debugf("job %s %s %s: %s", job.ID, job.Request.Mode, job.Request.Source, job.Status)
	})

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connecting to Telegram: %w", err)
	}
	api.Debug = cfg.Debug
	log.Printf("INFO: authorized as @%s, %d workers", api.Self.UserName, service.MaxParallel())

	loc := bot.NewLocalization()
	loc.SetLanguage(cfg.Language)
	log.Printf("INFO: replying in %s", bot.LanguageName(loc.GetCurrentLanguage()))
	handler := bot.NewHandler(
		api,
		service,
		delivery.NewPolicy(cfg.SizeThresholdBytes()),
		bot.NewLinkRegistry(cfg.StaleAfter.Duration),
		loc,
		cfg.DeleteAfter.Duration,
	)

	bot.Run(ctx, api, handler)

	if active := service.Active(); len(active) > 0 {
		log.Printf("INFO: waiting for %d running jobs", len(active))
	}
	service.Wait()
	log.Printf("INFO: stopped, %d deletions pending", store.Pending())
	return nil
}
