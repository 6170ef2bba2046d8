package hasher

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

const (
	// md5Marker precedes the digest of the re-encoded audio stream in the
	// tool's output.
	md5Marker = "MD5="
	md5HexLen = 32

	// emptyStreamMD5 is the MD5 of zero bytes. The tool reports it when it
	// failed to read any audio, which is usually transient.
	emptyStreamMD5 = "d41d8cd98f00b204e9800998ecf8427e"

	// DefaultToolTimeout bounds a single tool invocation.
	DefaultToolTimeout = 2 * time.Minute
)

// commandRunner runs an external program and returns its standard output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// AudioTagStrip normalizes audio files by having an external tool (ffmpeg
// or a compatible program) copy the audio bitstream without its tag
// container and print the MD5 of that stream.
type AudioTagStrip struct {
	toolPath  string
	extraArgs []string
	timeout   time.Duration
	run       commandRunner
}

var _ ContentNormalizer = (*AudioTagStrip)(nil)

// NewAudioTagStrip creates a normalizer invoking toolPath. extraArgs is a
// shell-style argument string inserted before the input; timeout <= 0 uses
// DefaultToolTimeout.
func NewAudioTagStrip(toolPath, extraArgs string, timeout time.Duration) (*AudioTagStrip, error) {
	if toolPath == "" {
		return nil, fmt.Errorf("audio tool path is empty")
	}
	args, err := shlex.Split(extraArgs)
	if err != nil {
		return nil, fmt.Errorf("parsing audio tool arguments: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &AudioTagStrip{
		toolPath:  toolPath,
		extraArgs: args,
		timeout:   timeout,
		run:       execRunner,
	}, nil
}

// Normalize runs the tool against path and returns the reported digest.
func (a *AudioTagStrip) Normalize(ctx context.Context, path string) (Normalized, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.run(ctx, a.toolPath, a.args(path)...)
	if err != nil {
		return Normalized{}, fmt.Errorf("running %s: %w", a.toolPath, err)
	}

	digest, err := parseDigest(out)
	if err != nil {
		return Normalized{}, err
	}
	return Normalized{
		Data:  []byte(digest),
		Empty: digest == emptyStreamMD5,
	}, nil
}

// args builds: -hide_banner -nostdin <extra> -i <path> -map 0:a -c:a copy -f md5 -
func (a *AudioTagStrip) args(path string) []string {
	args := []string{"-hide_banner", "-nostdin"}
	args = append(args, a.extraArgs...)
	return append(args, "-i", path, "-map", "0:a", "-c:a", "copy", "-f", "md5", "-")
}

// parseDigest finds the marker line and returns the 32 hex digits after it.
func parseDigest(out []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		i := strings.Index(line, md5Marker)
		if i < 0 {
			continue
		}
		rest := line[i+len(md5Marker):]
		n := 0
		for n < len(rest) && n < md5HexLen && isHex(rest[n]) {
			n++
		}
		if n < md5HexLen {
			return "", fmt.Errorf("audio tool digest %q is shorter than %d hex digits", rest, md5HexLen)
		}
		return strings.ToLower(rest[:md5HexLen]), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading audio tool output: %w", err)
	}
	return "", fmt.Errorf("audio tool output has no %s line", md5Marker)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
