package bot

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ytget/yt-downloader-bot/internal/model"
)

// LinkPattern matches the YouTube links the bot reacts to
var LinkPattern = regexp.MustCompile(`(https?://)?(www\.)?(youtube\.com|youtu\.be)/\S+`)

// Callback actions
const (
	ActionInfo  = "info"
	ActionAudio = "audio"
	ActionVideo = "video"

	callbackSeparator = "|"
)

// ExtractLink returns the first YouTube link in text
func ExtractLink(text string) (model.SourceReference, bool) {
	link := LinkPattern.FindString(strings.TrimSpace(text))
	if link == "" {
		return "", false
	}
	return model.SourceReference(link), true
}

// EncodeCallback builds inline button data. Telegram caps it at 64 bytes,
// so the link itself is replaced by a registry token.
func EncodeCallback(action, token string) string {
	return action + callbackSeparator + token
}

// ParseCallback splits button data into action and token
func ParseCallback(data string) (action, token string, ok bool) {
	action, token, ok = strings.Cut(data, callbackSeparator)
	if !ok || action == "" || token == "" {
		return "", "", false
	}
	return action, token, true
}

type pendingLink struct {
	ref     model.SourceReference
	created time.Time
}

// LinkRegistry maps short tokens to links awaiting a button press
type LinkRegistry struct {
	mu    sync.Mutex
	links map[string]pendingLink
	ttl   time.Duration
	now   func() time.Time
}

// NewLinkRegistry creates a registry whose tokens expire after ttl
func NewLinkRegistry(ttl time.Duration) *LinkRegistry {
	return &LinkRegistry{
		links: make(map[string]pendingLink),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores ref and returns its token
func (r *LinkRegistry) Put(ref model.SourceReference) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	r.links[token] = pendingLink{ref: ref, created: r.now()}
	return token
}

// Get returns the link stored under token. Tokens stay valid until they
// expire so that one menu can be used several times.
func (r *LinkRegistry) Get(token string) (model.SourceReference, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[token]
	if !ok {
		return "", false
	}
	if r.expired(link) {
		delete(r.links, token)
		return "", false
	}
	return link.ref, true
}

func (r *LinkRegistry) expired(link pendingLink) bool {
	return r.ttl > 0 && r.now().Sub(link.created) > r.ttl
}

func (r *LinkRegistry) pruneLocked() {
	for token, link := range r.links {
		if r.expired(link) {
			delete(r.links, token)
		}
	}
}
