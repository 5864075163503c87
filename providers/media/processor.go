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
	defaultFFmpegPath    = "ffmpeg"
	defaultFFmpegTimeout = 15 * time.Minute
)

type dimensions struct {
	width  int
	height int
}

// Target output sizes per platform
var platformSizes = map[string]dimensions{
	"tiktok":    {1080, 1920},
	"youtube":   {1920, 1080},
	"instagram": {1080, 1080},
	"facebook":  {1200, 630},
	"douyin":    {1080, 1920},
	"twitter":   {1200, 675},
}

// Processor re-encodes downloaded videos for a target platform with ffmpeg
type Processor struct {
	Path    string
	Timeout time.Duration

	log *zap.SugaredLogger
}

func NewProcessor(log *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Processor{
		Path:    defaultFFmpegPath,
		Timeout: defaultFFmpegTimeout,
		log:     log,
	}
}

// Process scales and pads the video to the target platform's dimensions
// and writes the result into outputDir.
func (p *Processor) Process(ctx context.Context, localPath, outputDir, targetPlatform string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	size, ok := platformSizes[strings.ToLower(targetPlatform)]
	if !ok {
		size = platformSizes["youtube"]
	}

	base := strings.TrimSuffix(filepath.Base(localPath), filepath.Ext(localPath))
	outPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.mp4", base, targetPlatform))

	// Scale to fit, then pad to the exact frame so aspect ratio is preserved
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		size.width, size.height, size.width, size.height)

	args := []string{
		"-y",
		"-i", localPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		outPath,
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = defaultFFmpegTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, p.path(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.log.Infow("processing video", "input", localPath, "platform", targetPlatform, "size", fmt.Sprintf("%dx%d", size.width, size.height))

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("processing timed out for %s", localPath)
		}
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, truncateErr(stderr.String()))
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("processing produced no file for %s", localPath)
	}
	return outPath, nil
}

func (p *Processor) path() string {
	if p.Path != "" {
		return p.Path
	}
	return defaultFFmpegPath
}

func truncateErr(s string) string {
	if len(s) > 500 {
		return s[len(s)-500:]
	}
	return s
}
