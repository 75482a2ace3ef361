package bot

import (
	"context"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PollTimeout is the long-polling timeout in seconds
const PollTimeout = 60

// Updater is the polling part of *tgbotapi.BotAPI
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Run polls updates until ctx is done and handles each one on its own
// goroutine, so a long download never blocks other chats. On shutdown it
// stops polling and waits for running handlers, which keep a context that is
// not cancelled so their outcome messages still go out.
func Run(ctx context.Context, updater Updater, handler *Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = PollTimeout
	updates := updater.GetUpdatesChan(u)

	handlerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Printf("INFO: stopping update polling")
			updater.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				handler.HandleUpdate(handlerCtx, update)
			}(update)
		}
	}
}
