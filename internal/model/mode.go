package model

import (
	"fmt"
	"strings"
)

// Mode selects the extraction format and output container
type Mode string

const (
	ModeAudio Mode = "audio"
	ModeVideo Mode = "video"
)

// Output container extensions
const (
	ExtensionAudio = "mp3"
	ExtensionVideo = "mp4"
)

// ParseMode converts user input into a Mode
func ParseMode(s string) (Mode, error) {
	want := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Modes() {
		if m == want {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported mode %q (valid: %s)", s, ModeNames(", "))
}

// String returns the string representation of Mode
func (m Mode) String() string {
	return string(m)
}

// IsValid reports whether m is one of the supported modes
func (m Mode) IsValid() bool {
	return m == ModeAudio || m == ModeVideo
}

// Extension returns the file extension of the final artifact, without the dot
func (m Mode) Extension() string {
	if m == ModeAudio {
		return ExtensionAudio
	}
	return ExtensionVideo
}

// Modes returns all supported modes
func Modes() []Mode {
	return []Mode{ModeAudio, ModeVideo}
}

// ModeNames joins the supported mode names with sep
func ModeNames(sep string) string {
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, m.String())
	}
	return strings.Join(names, sep)
}
