package capture

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// FFmpegLauncher spawns ffmpeg with the segment-muxer flags needed to
// turn one continuous RTSP input into numbered segment files: stream
// copy (no re-encode), segment duration fixed per-instance, timestamps
// reset per segment so each file is independently playable.
type FFmpegLauncher struct {
	StreamURLBase   string
	SegmentDuration time.Duration
	OutputExtension string
}

// Launch builds the ffmpeg command for one capture session. The
// process's stdin, stdout, and stderr are left for the caller
// (Supervisor.Start) to wire up.
func (l FFmpegLauncher) Launch(stream, _, outputDir string) (*exec.Cmd, error) {
	inputURL := fmt.Sprintf("%s/%s", l.StreamURLBase, stream)
	outputPattern := filepath.Join(outputDir, "segment_%03d."+l.OutputExtension)

	//nolint:gosec // arguments are built from validated config and stream names, not user input
	cmd := exec.Command("ffmpeg",
		"-i", inputURL,
		"-c", "copy",
		"-f", "segment",
		"-segment_time", strconv.Itoa(int(l.SegmentDuration.Seconds())),
		"-segment_format", l.OutputExtension,
		"-reset_timestamps", "1",
		"-avoid_negative_ts", "make_zero",
		"-loglevel", "warning",
		outputPattern,
	)

	return cmd, nil
}
