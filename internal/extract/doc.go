package extract

// Package extract is the boundary to the media engine. It probes metadata and
// fetches audio or video artifacts through yt-dlp
// (via github.com/lrstanley/go-ytdlp), naming files after the sanitized title.
