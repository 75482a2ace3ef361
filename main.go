package main

import (
	"github.com/ytget/yt-downloader-bot/internal/cli"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	cli.Version = version
	cli.Execute()
}
