package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 10 * time.Minute

	downloadFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
)

// Downloader fetches videos with yt-dlp as a subprocess
type Downloader struct {
	Path    string
	Timeout time.Duration

	log *zap.SugaredLogger
}

func NewDownloader(log *zap.SugaredLogger) *Downloader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Downloader{
		Path:    defaultYtdlpPath,
		Timeout: defaultYtdlpTimeout,
		log:     log,
	}
}

// Download fetches a video as mp4 into outputDir and returns the local path
func (d *Downloader) Download(ctx context.Context, videoID, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	outPath := filepath.Join(outputDir, videoID+".mp4")
	args := []string{
		"-f", downloadFormat,
		"--merge-output-format", "mp4",
		"--no-warnings",
		"-o", outPath,
		"https://www.youtube.com/watch?v=" + videoID,
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultYtdlpTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, d.path(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	d.log.Infow("downloading video", "video_id", videoID, "output", outPath)

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("download timed out for %s", videoID)
		}
		errMsg := stderr.String()
		if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "rate") {
			return "", fmt.Errorf("rate limited while downloading %s", videoID)
		}
		return "", fmt.Errorf("yt-dlp failed for %s: %w: %s", videoID, err, errMsg)
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("download produced no file for %s", videoID)
	}
	return outPath, nil
}

func (d *Downloader) path() string {
	if d.Path != "" {
		return d.Path
	}
	return defaultYtdlpPath
}
