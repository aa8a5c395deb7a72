package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ExtractAudioClip writes the first clipSeconds of the file's audio track to
// a temporary .m4a file and returns its path. Recognition services work on
// short samples, not full recordings. The caller owns the returned file and
// must remove it on every exit path.
func ExtractAudioClip(ctx context.Context, inputPath string, clipSeconds int) (string, error) {
	if clipSeconds <= 0 {
		clipSeconds = 20
	}

	tmp, err := os.CreateTemp("", "clip-*.m4a")
	if err != nil {
		return "", fmt.Errorf("create temp clip: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-t", fmt.Sprintf("%d", clipSeconds),
		"-vn",
		"-acodec", "aac",
		"-b:a", "128k",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ffmpeg audio extract: %w: %s", err, tail(out, 300))
	}

	return tmpPath, nil
}

// tail returns at most n trailing bytes of b, for compact error messages.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
