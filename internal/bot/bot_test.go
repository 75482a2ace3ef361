package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/yt-downloader-bot/internal/delivery"
	"github.com/ytget/yt-downloader-bot/internal/download"
	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

const testChatID int64 = 42

// fakeSender records everything the handler sends
type fakeSender struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	nextID    int
	failSend  func(c tgbotapi.Chattable) error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend != nil {
		if err := f.failSend(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID, Chat: &tgbotapi.Chat{ID: testChatID}}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeSender) count(match func(tgbotapi.Chattable) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range append(append([]tgbotapi.Chattable{}, f.sent...), f.requested...) {
		if match(c) {
			n++
		}
	}
	return n
}

// stubExtractor produces a file of the given size named after title
type stubExtractor struct {
	dir   string
	title string
	size  int64
	err   error
}

func (s *stubExtractor) Probe(ctx context.Context, ref model.SourceReference) (*model.MediaInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.MediaInfo{Title: s.title, DurationSeconds: 3725}, nil
}

func (s *stubExtractor) Fetch(ctx context.Context, ref model.SourceReference, mode model.Mode) (*model.Artifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	path := filepath.Join(s.dir, platform.SanitizeName(s.title)+"."+mode.Extension())
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return nil, err
	}
	if err := os.Truncate(path, s.size); err != nil {
		return nil, err
	}
	return &model.Artifact{Path: path, SizeBytes: s.size, CreatedAt: time.Now()}, nil
}

type nopScheduler struct {
	mu    sync.Mutex
	count int
}

func (n *nopScheduler) Schedule(*model.Artifact) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

func newTestHandler(t *testing.T, ext *stubExtractor) (*Handler, *fakeSender, *download.Service) {
	t.Helper()
	if ext.dir == "" {
		ext.dir = t.TempDir()
	}
	sender := &fakeSender{}
	service := download.NewService(ext, &nopScheduler{}, 2)
	handler := NewHandler(sender, service, delivery.Policy{}, NewLinkRegistry(time.Hour), NewLocalization(), 4*time.Hour)
	return handler, sender, service
}

func linkUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      text,
	}}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: testChatID}},
		Data:    data,
	}}
}

// pressButton sends a link, then presses the button for action
func pressButton(t *testing.T, h *Handler, sender *fakeSender, action string) {
	t.Helper()
	h.HandleUpdate(context.Background(), linkUpdate("https://youtu.be/abc123"))

	msgs := sender.messages()
	if len(msgs) == 0 {
		t.Fatal("Expected a menu message")
	}
	markup, ok := msgs[len(msgs)-1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("Expected inline keyboard, got %T", msgs[len(msgs)-1].ReplyMarkup)
	}
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != nil && strings.HasPrefix(*button.CallbackData, action+"|") {
				h.HandleUpdate(context.Background(), callbackUpdate(*button.CallbackData))
				return
			}
		}
	}
	t.Fatalf("No %s button in menu", action)
}

func isUpload(c tgbotapi.Chattable) bool {
	switch c.(type) {
	case tgbotapi.AudioConfig, tgbotapi.VideoConfig:
		return true
	}
	return false
}

func isDelete(c tgbotapi.Chattable) bool {
	_, ok := c.(tgbotapi.DeleteMessageConfig)
	return ok
}

func TestHandler_Start(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{})
	update := linkUpdate("/start")
	update.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}

	h.HandleUpdate(context.Background(), update)

	msgs := sender.messages()
	if len(msgs) != 1 || msgs[0].Text != NewLocalization().GetText(KeyStart) {
		t.Errorf("Expected greeting, got %+v", msgs)
	}
}

func TestHandler_IgnoresOtherText(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{})
	h.HandleUpdate(context.Background(), linkUpdate("hello there"))
	h.HandleUpdate(context.Background(), linkUpdate("https://vimeo.com/123"))

	if len(sender.messages()) != 0 {
		t.Errorf("Expected no replies, got %d", len(sender.messages()))
	}
}

func TestHandler_LinkMenuFitsCallbackLimit(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{})
	long := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL" + strings.Repeat("x", 80)
	h.HandleUpdate(context.Background(), linkUpdate(long))

	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("Expected one menu message, got %d", len(msgs))
	}
	markup := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	buttons := 0
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			buttons++
			if len(*button.CallbackData) > 64 {
				t.Errorf("Callback data too long: %d bytes", len(*button.CallbackData))
			}
		}
	}
	if buttons != 3 {
		t.Errorf("Expected 3 buttons, got %d", buttons)
	}
}

func TestHandler_AudioImmediateDelivery(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{title: "My Song: Live!", size: 30 * delivery.BytesPerMiB})
	pressButton(t, h, sender, ActionAudio)

	if n := sender.count(isUpload); n != 1 {
		t.Fatalf("Expected exactly one upload, got %d", n)
	}
	var audio tgbotapi.AudioConfig
	for _, c := range sender.sent {
		if a, ok := c.(tgbotapi.AudioConfig); ok {
			audio = a
		}
	}
	if path, ok := audio.File.(tgbotapi.FilePath); !ok || filepath.Base(string(path)) != "My_Song__Live!.mp3" {
		t.Errorf("Unexpected uploaded file %v", audio.File)
	}
	if n := sender.count(isDelete); n != 1 {
		t.Errorf("Expected the status message to be deleted, got %d deletions", n)
	}
	for _, msg := range sender.messages() {
		if strings.HasPrefix(msg.Text, "❌") {
			t.Errorf("Unexpected failure message: %s", msg.Text)
		}
	}
}

func TestHandler_VideoRetainAndNotify(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{title: "Big Clip", size: 80 * delivery.BytesPerMiB})
	pressButton(t, h, sender, ActionVideo)

	if n := sender.count(isUpload); n != 0 {
		t.Fatalf("Expected no upload, got %d", n)
	}
	msgs := sender.messages()
	notice := msgs[len(msgs)-1]
	if !strings.Contains(notice.Text, "`Big_Clip.mp4`") {
		t.Errorf("Expected notice naming the file, got %q", notice.Text)
	}
	if !strings.Contains(notice.Text, "4h") {
		t.Errorf("Expected retention window in notice, got %q", notice.Text)
	}
	if notice.ParseMode != tgbotapi.ModeMarkdown {
		t.Errorf("Expected Markdown notice, got %q", notice.ParseMode)
	}
	if n := sender.count(isDelete); n != 1 {
		t.Errorf("Expected the status message to be deleted, got %d deletions", n)
	}
}

func TestHandler_FailureMessage(t *testing.T) {
	ext := &stubExtractor{err: model.NewExtractionError("fetch", "could not download the media", errors.New("stderr noise"))}
	h, sender, _ := newTestHandler(t, ext)
	pressButton(t, h, sender, ActionAudio)

	msgs := sender.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Text, "could not download the media") {
		t.Errorf("Expected failure detail, got %q", last.Text)
	}
	if strings.Contains(last.Text, "stderr noise") {
		t.Errorf("Expected internal cause to stay out of the message, got %q", last.Text)
	}
	if n := sender.count(isUpload); n != 0 {
		t.Errorf("Expected no upload, got %d", n)
	}
}

func TestHandler_UploadFailureSendsOneOutcome(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{title: "small", size: 10})
	sender.failSend = func(c tgbotapi.Chattable) error {
		if isUpload(c) {
			return errors.New("Request Entity Too Large")
		}
		return nil
	}
	pressButton(t, h, sender, ActionAudio)

	msgs := sender.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Text, "small.mp3") {
		t.Errorf("Expected upload failure naming the file, got %q", last.Text)
	}
}

func TestHandler_Info(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{title: "Song_*with* `marks`"})
	pressButton(t, h, sender, ActionInfo)

	msgs := sender.messages()
	info := msgs[len(msgs)-1]
	if info.ParseMode != tgbotapi.ModeMarkdown {
		t.Errorf("Expected Markdown, got %q", info.ParseMode)
	}
	if !strings.Contains(info.Text, "01:02:05") {
		t.Errorf("Expected formatted duration, got %q", info.Text)
	}
	if !strings.Contains(info.Text, `Song\_\*with\* \`+"`marks\\`") {
		t.Errorf("Expected escaped title, got %q", info.Text)
	}
	if !strings.Contains(info.Text, "`Song__with__'marks'`") {
		t.Errorf("Expected sanitized file name in code span, got %q", info.Text)
	}
}

func TestHandler_ExpiredLink(t *testing.T) {
	h, sender, _ := newTestHandler(t, &stubExtractor{})
	h.HandleUpdate(context.Background(), callbackUpdate("audio|deadbeef"))

	msgs := sender.messages()
	if len(msgs) != 1 || msgs[0].Text != NewLocalization().GetText(KeyLinkExpired) {
		t.Errorf("Expected expiry notice, got %+v", msgs)
	}
	if len(sender.requested) != 1 {
		t.Errorf("Expected callback to be answered, got %d requests", len(sender.requested))
	}
}

// fakeUpdater feeds a fixed set of updates
type fakeUpdater struct {
	ch      chan tgbotapi.Update
	stopped chan struct{}
}

func (f *fakeUpdater) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.ch
}

func (f *fakeUpdater) StopReceivingUpdates() {
	close(f.stopped)
}

func TestRun_HandlesUpdatesAndStops(t *testing.T) {
	h, sender, service := newTestHandler(t, &stubExtractor{title: "clip", size: 1})
	updater := &fakeUpdater{ch: make(chan tgbotapi.Update, 2), stopped: make(chan struct{})}

	h.HandleUpdate(context.Background(), linkUpdate("https://youtu.be/abc"))
	markup := sender.messages()[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	audioData := *markup.InlineKeyboard[1][0].CallbackData

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, updater, h)
		close(done)
	}()

	updater.ch <- callbackUpdate(audioData)
	updater.ch <- callbackUpdate(audioData)

	deadline := time.Now().Add(5 * time.Second)
	for sender.count(isUpload) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	select {
	case <-updater.stopped:
	default:
		t.Error("Expected polling to be stopped")
	}
	service.Wait()
	if n := sender.count(isUpload); n != 2 {
		t.Errorf("Expected 2 uploads, got %d", n)
	}
}
