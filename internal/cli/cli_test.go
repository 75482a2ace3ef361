package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// execute runs the root command with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	flagConfig, flagDir, flagWorkers, flagDebug, flagMode = "", "", 0, false, "audio"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "yt-downloader-bot "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSweepCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale.mp3")
	fresh := filepath.Join(dir, "fresh.mp4")
	for _, p := range []string{stale, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-25 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "sweep", "--dir", dir)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if !strings.Contains(out, "removed 1") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected stale file to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("expected fresh file to be kept")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	_, err := execute(t, "sweep", "--dir", t.TempDir(), "--workers", "4", "--debug")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if cfg.MaxWorkers != 4 || !cfg.Debug {
		t.Errorf("flags not applied: workers=%d debug=%v", cfg.MaxWorkers, cfg.Debug)
	}
}

func TestInvalidWorkersRejected(t *testing.T) {
	if _, err := execute(t, "sweep", "--dir", t.TempDir(), "--workers", "40"); err == nil {
		t.Error("expected error for out-of-range workers")
	}
}

func TestFetchRejectsUnknownMode(t *testing.T) {
	_, err := execute(t, "fetch", "https://youtu.be/abc", "--mode", "gif", "--dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "unsupported mode") {
		t.Errorf("expected unsupported mode error, got %v", err)
	}
}

func TestServeRequiresToken(t *testing.T) {
	t.Setenv("YTBOT_TOKEN", "")
	_, err := execute(t, "serve", "--dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "bot token") {
		t.Errorf("expected missing token error, got %v", err)
	}
}
