package platform

import "strings"

// SafeNameSubstitute replaces every forbidden character in a title
const SafeNameSubstitute = "_"

// ForbiddenNameChars lists the characters that never appear in a safe name
const ForbiddenNameChars = `\/*?":&<>|. `

var nameReplacer = newNameReplacer()

func newNameReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(ForbiddenNameChars)*2)
	for _, r := range ForbiddenNameChars {
		pairs = append(pairs, string(r), SafeNameSubstitute)
	}
	return strings.NewReplacer(pairs...)
}

// SanitizeName converts a media title into a filesystem-safe identifier.
// Each forbidden character becomes one underscore; runs are not collapsed,
// so the result is deterministic and idempotent. Distinct titles may map to
// the same name.
func SanitizeName(title string) string {
	return nameReplacer.Replace(title)
}

// EscapeOutputTemplate escapes percent signs so that name is taken literally
// inside a yt-dlp output template
func EscapeOutputTemplate(name string) string {
	return strings.ReplaceAll(name, "%", "%%")
}
