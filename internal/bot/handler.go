package bot

import (
	"context"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/yt-downloader-bot/internal/delivery"
	"github.com/ytget/yt-downloader-bot/internal/download"
	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

// Sender is the part of *tgbotapi.BotAPI the handler talks to
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler turns Telegram updates into jobs and job outcomes into messages
type Handler struct {
	sender      Sender
	dispatcher  download.Dispatcher
	policy      delivery.Policy
	links       *LinkRegistry
	loc         *Localization
	deleteAfter time.Duration
}

// NewHandler creates a handler. deleteAfter is only used in the retention
// notice shown to users.
func NewHandler(sender Sender, dispatcher download.Dispatcher, policy delivery.Policy, links *LinkRegistry, loc *Localization, deleteAfter time.Duration) *Handler {
	return &Handler{
		sender:      sender,
		dispatcher:  dispatcher,
		policy:      policy,
		links:       links,
		loc:         loc,
		deleteAfter: deleteAfter,
	}
}

// HandleUpdate processes one update. It blocks until any job it started
// has produced its outcome message.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleMessage(msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		if msg.Command() == "start" {
			h.send(tgbotapi.NewMessage(chatID, h.loc.GetText(KeyStart)))
		}
		return
	}

	ref, ok := ExtractLink(msg.Text)
	if !ok {
		return
	}
	token := h.links.Put(ref)

	reply := tgbotapi.NewMessage(chatID, h.loc.GetText(KeyChooseAction))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.loc.GetText(KeyButtonInfo), EncodeCallback(ActionInfo, token)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.loc.GetText(KeyButtonAudio), EncodeCallback(ActionAudio, token)),
			tgbotapi.NewInlineKeyboardButtonData(h.loc.GetText(KeyButtonVideo), EncodeCallback(ActionVideo, token)),
		),
	)
	h.send(reply)
}

func (h *Handler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID := query.Message.Chat.ID

	action, token, ok := ParseCallback(query.Data)
	if !ok {
		h.answer(query.ID, h.loc.GetText(KeyUnknownAction))
		return
	}
	ref, ok := h.links.Get(token)
	if !ok {
		h.answer(query.ID, "")
		h.send(tgbotapi.NewMessage(chatID, h.loc.GetText(KeyLinkExpired)))
		return
	}
	h.answer(query.ID, "")

	switch action {
	case ActionInfo:
		h.handleInfo(ctx, chatID, ref)
	case ActionAudio:
		h.handleDownload(ctx, chatID, ref, model.ModeAudio)
	case ActionVideo:
		h.handleDownload(ctx, chatID, ref, model.ModeVideo)
	default:
		log.Printf("ERROR: unknown callback action %q", action)
	}
}

func (h *Handler) handleInfo(ctx context.Context, chatID int64, ref model.SourceReference) {
	info, err := h.dispatcher.Probe(ctx, ref)
	if err != nil {
		log.Printf("ERROR: probe %s: %v", ref, err)
		h.send(tgbotapi.NewMessage(chatID, h.loc.Format(KeyFailed, model.UserMessage(err))))
		return
	}

	text := h.loc.Format(KeyInfo,
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, info.Title),
		platform.FormatDuration(info.DurationSeconds),
		codeSpan(platform.SanitizeName(info.Title)),
	)
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	h.send(reply)
}

// handleDownload runs one job and sends exactly one outcome message
func (h *Handler) handleDownload(ctx context.Context, chatID int64, ref model.SourceReference, mode model.Mode) {
	status, statusErr := h.sender.Send(tgbotapi.NewMessage(chatID, h.loc.Format(KeyDownloading, h.modeLabel(mode))))
	if statusErr != nil {
		log.Printf("ERROR: send status to chat %d: %v", chatID, statusErr)
	} else {
		defer h.deleteMessage(chatID, status.MessageID)
	}

	future := h.dispatcher.Dispatch(model.JobRequest{Source: ref, Mode: mode})
	artifact, err := future.Wait(ctx)
	if err != nil {
		log.Printf("ERROR: job %s for chat %d: %v", future.JobID(), chatID, err)
		h.send(tgbotapi.NewMessage(chatID, h.loc.Format(KeyFailed, model.UserMessage(err))))
		return
	}

	decision := h.policy.Classify(artifact)
	switch decision {
	case delivery.RetainAndNotify:
		text := h.loc.Format(KeyRetained, codeSpan(artifact.Name()), formatWindow(h.deleteAfter))
		reply := tgbotapi.NewMessage(chatID, text)
		reply.ParseMode = tgbotapi.ModeMarkdown
		h.send(reply)
	default:
		if statusErr == nil {
			h.send(tgbotapi.NewEditMessageText(chatID, status.MessageID, h.loc.GetText(KeySending)))
		}
		if err := h.upload(chatID, artifact, mode); err != nil {
			log.Printf("ERROR: upload %s to chat %d: %v", artifact.Path, chatID, err)
			h.send(tgbotapi.NewMessage(chatID, h.loc.Format(KeyUploadFailed, artifact.Name())))
			return
		}
	}
	logTransition(future.JobID(), artifact, model.ArtifactCreated, decision.State())
}

// logTransition records an artifact lifecycle step
func logTransition(jobID string, artifact *model.Artifact, from, to model.ArtifactState) {
	if !from.CanTransition(to) {
		log.Printf("ERROR: job %s: invalid artifact transition %s -> %s for %s", jobID, from, to, artifact.Name())
		return
	}
	log.Printf("INFO: job %s: %s %s -> %s", jobID, artifact.Name(), from, to)
}

func (h *Handler) upload(chatID int64, artifact *model.Artifact, mode model.Mode) error {
	file := tgbotapi.FilePath(artifact.Path)
	var err error
	if mode == model.ModeAudio {
		_, err = h.sender.Send(tgbotapi.NewAudio(chatID, file))
	} else {
		_, err = h.sender.Send(tgbotapi.NewVideo(chatID, file))
	}
	return err
}

func (h *Handler) modeLabel(mode model.Mode) string {
	if mode == model.ModeAudio {
		return h.loc.GetText(KeyModeAudio)
	}
	return h.loc.GetText(KeyModeVideo)
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.sender.Send(c); err != nil {
		log.Printf("ERROR: send message: %v", err)
	}
}

func (h *Handler) answer(queryID, text string) {
	if _, err := h.sender.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		log.Printf("ERROR: answer callback: %v", err)
	}
}

func (h *Handler) deleteMessage(chatID int64, messageID int) {
	if _, err := h.sender.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Printf("ERROR: delete message %d: %v", messageID, err)
	}
}

// codeSpan makes s safe inside a Markdown code entity
func codeSpan(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

// formatWindow renders a retention window like "4h" or "90m"
func formatWindow(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
