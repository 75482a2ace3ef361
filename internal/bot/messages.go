package bot

import "fmt"

// Localization manages bot text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyStart         = "start"
	KeyChooseAction  = "choose_action"
	KeyButtonInfo    = "button_info"
	KeyButtonAudio   = "button_audio"
	KeyButtonVideo   = "button_video"
	KeyInfo          = "info"
	KeyDownloading   = "downloading"
	KeySending       = "sending"
	KeyRetained      = "retained"
	KeyFailed        = "failed"
	KeyUploadFailed  = "upload_failed"
	KeyLinkExpired   = "link_expired"
	KeyModeAudio     = "mode_audio"
	KeyModeVideo     = "mode_video"
	KeyUnknownAction = "unknown_action"
)

// DefaultLanguage is used when a text is missing in the current language
const DefaultLanguage = "en"

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: DefaultLanguage,
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language; unknown languages are ignored
func (l *Localization) SetLanguage(lang string) {
	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts[DefaultLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// Format returns the localized text for key with args substituted
func (l *Localization) Format(key string, args ...any) string {
	return fmt.Sprintf(l.GetText(key), args...)
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// languageNames holds the display name of every language with texts
var languageNames = map[string]string{
	"en": "English",
	"uk": "Українська",
	"ru": "Русский",
}

// LanguageName returns the display name of lang, or lang itself if unknown
func LanguageName(lang string) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return lang
}

// initializeTexts initializes all text translations.
// KeyInfo and KeyRetained are Markdown templates.
func (l *Localization) initializeTexts() {
	// English texts
	l.texts["en"] = map[string]string{
		KeyStart:         "🎥 Bot is ready! Send a YouTube link.",
		KeyChooseAction:  "Choose an action:",
		KeyButtonInfo:    "ℹ️ Info",
		KeyButtonAudio:   "🎵 Audio (MP3)",
		KeyButtonVideo:   "🎥 Video (MP4)",
		KeyInfo:          "📝 *Title:* %s\n⏱ *Duration:* %s\n📂 *File name:* `%s`",
		KeyDownloading:   "⏳ Downloading %s...",
		KeySending:       "🚀 Sending...",
		KeyRetained:      "✅ Done! File `%s` is too large to send and is kept for %s.",
		KeyFailed:        "❌ Error: %s",
		KeyUploadFailed:  "❌ Could not send the file: %s",
		KeyLinkExpired:   "This link has expired, please send it again.",
		KeyModeAudio:     "audio",
		KeyModeVideo:     "video",
		KeyUnknownAction: "Unknown action",
	}

	// Ukrainian texts
	l.texts["uk"] = map[string]string{
		KeyStart:         "🎥 Бот готовий! Надсилайте посилання на YouTube.",
		KeyChooseAction:  "Оберіть дію:",
		KeyButtonInfo:    "ℹ️ Інформація",
		KeyButtonAudio:   "🎵 Аудіо (MP3)",
		KeyButtonVideo:   "🎥 Відео (MP4)",
		KeyInfo:          "📝 *Назва:* %s\n⏱ *Тривалість:* %s\n📂 *Файл буде названо:* `%s`",
		KeyDownloading:   "⏳ Завантажую %s...",
		KeySending:       "🚀 Надсилаю...",
		KeyRetained:      "✅ Готово! Файл `%s` завеликий для надсилання і збережений на %s.",
		KeyFailed:        "❌ Помилка: %s",
		KeyUploadFailed:  "❌ Не вдалося надіслати файл: %s",
		KeyLinkExpired:   "Посилання застаріло, надішліть його ще раз.",
		KeyModeAudio:     "аудіо",
		KeyModeVideo:     "відео",
		KeyUnknownAction: "Невідома дія",
	}

	// Russian texts
	l.texts["ru"] = map[string]string{
		KeyStart:         "🎥 Бот готов! Отправляйте ссылку на YouTube.",
		KeyChooseAction:  "Выберите действие:",
		KeyButtonInfo:    "ℹ️ Информация",
		KeyButtonAudio:   "🎵 Аудио (MP3)",
		KeyButtonVideo:   "🎥 Видео (MP4)",
		KeyInfo:          "📝 *Название:* %s\n⏱ *Длительность:* %s\n📂 *Файл будет назван:* `%s`",
		KeyDownloading:   "⏳ Загружаю %s...",
		KeySending:       "🚀 Отправляю...",
		KeyRetained:      "✅ Готово! Файл `%s` слишком большой для отправки и сохранён на %s.",
		KeyFailed:        "❌ Ошибка: %s",
		KeyUploadFailed:  "❌ Не удалось отправить файл: %s",
		KeyLinkExpired:   "Ссылка устарела, отправьте её ещё раз.",
		KeyModeAudio:     "аудио",
		KeyModeVideo:     "видео",
		KeyUnknownAction: "Неизвестное действие",
	}
}
