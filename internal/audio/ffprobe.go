package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// availabilityTTL bounds how long a LookPath result is trusted.
const availabilityTTL = 5 * time.Minute

var errNoAudioStream = errors.New("no audio stream found")

// FFProbe runs the ffprobe binary against an in-memory buffer.
type FFProbe struct {
	Path    string
	Timeout time.Duration

	logger hclog.Logger

	mu        sync.RWMutex
	available *bool
	checkedAt time.Time
}

// ffprobeOutput is the subset of `ffprobe -print_format json` we read.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	BitRate        string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// NewFFProbe creates a prober. An empty path means "ffprobe" from $PATH.
func NewFFProbe(path string, timeout time.Duration, logger hclog.Logger) *FFProbe {
	if path == "" {
		path = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FFProbe{Path: path, Timeout: timeout, logger: logger.Named("ffprobe")}
}

// Available reports whether the binary can be found. The answer is cached.
func (p *FFProbe) Available() bool {
	p.mu.RLock()
	if p.available != nil && time.Since(p.checkedAt) < availabilityTTL {
		ok := *p.available
		p.mu.RUnlock()
		return ok
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.available != nil && time.Since(p.checkedAt) < availabilityTTL {
		return *p.available
	}

	_, err := exec.LookPath(p.Path)
	ok := err == nil
	if !ok {
		p.logger.Debug("ffprobe not found", "path", p.Path, "error", err)
	}
	p.available = &ok
	p.checkedAt = time.Now()
	return ok
}

// Probe feeds data to ffprobe over stdin and parses its JSON report.
func (p *FFProbe) Probe(ctx context.Context, data []byte) (*FormatInfo, error) {
	cmd := exec.CommandContext(ctx, p.Path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"pipe:0")
	cmd.Stdin = bytes.NewReader(data)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("ffprobe command failed: %w", err)
	}

	info, err := parseFFProbeOutput(output)
	if err != nil {
		return nil, err
	}
	p.logger.Trace("ffprobe result", "format", info.String())
	return info, nil
}

func parseFFProbeOutput(output []byte) (*FormatInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var stream *ffprobeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "audio" {
			stream = &out.Streams[i]
			break
		}
	}
	if stream == nil {
		return nil, errNoAudioStream
	}

	info := &FormatInfo{}
	if v, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = &v
	} else if v, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
		info.Duration = &v
	}
	if v, err := strconv.Atoi(stream.SampleRate); err == nil {
		info.SampleRate = &v
	}
	if stream.Channels > 0 {
		info.Channels = intPtr(stream.Channels)
	}

	// Prefer the stream bitrate over the container's.
	if v, err := strconv.ParseFloat(stream.BitRate, 64); err == nil {
		info.Bitrate = &v
	} else if v, err := strconv.ParseFloat(out.Format.BitRate, 64); err == nil {
		info.Bitrate = &v
	}

	if name := containerName(out.Format.FormatName); name != "" {
		info.Container = &name
	}
	if stream.CodecName != "" {
		info.Codec = stringPtr(stream.CodecName)
	}
	return info, nil
}

// containerName maps ffprobe's comma-separated format_name to a display name.
func containerName(formatName string) string {
	formatName = strings.ToLower(formatName)
	switch {
	case formatName == "":
		return ""
	case strings.Contains(formatName, "flac"):
		return "FLAC"
	case strings.Contains(formatName, "mp3"):
		return "MPEG"
	case strings.Contains(formatName, "ogg"):
		return "Ogg"
	case strings.Contains(formatName, "wav"):
		return "WAVE"
	case strings.Contains(formatName, "mp4"), strings.Contains(formatName, "m4a"):
		return "MPEG-4"
	case strings.Contains(formatName, "aiff"):
		return "AIFF"
	case strings.Contains(formatName, "matroska"), strings.Contains(formatName, "webm"):
		return "Matroska"
	}
	return strings.Split(formatName, ",")[0]
}
