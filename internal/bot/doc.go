package bot

// Package bot is the Telegram front-end. It offers info, audio and video
// actions for YouTube links and delivers each finished job either as an
// upload or as a notice naming the retained file.
