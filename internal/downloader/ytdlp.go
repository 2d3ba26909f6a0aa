package downloader

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBinary is the extraction engine executable looked up on PATH.
const DefaultBinary = "yt-dlp"

const (
	probeTimeout = 30 * time.Second

	// maxStderrTail bounds the error text kept for user-facing diagnostics.
	maxStderrTail = 1500
)

// Options is the declarative invocation object for the extraction engine.
type Options struct {
	URL                 string
	Selector            string
	OutputTemplate      string // full output path template, e.g. dir/%(title).150B [%(id)s].%(ext)s
	ForceGeneric        bool
	CookieHeader        string
	ConcurrentFragments int
	ExtractMP3          bool
	Binary              string
}

func (o *Options) binary() string {
	if o.Binary != "" {
		return o.Binary
	}
	return DefaultBinary
}

// Metadata is the engine's metadata-only extraction result.
type Metadata struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Duration float64  `json:"duration"`
	Formats  []Format `json:"formats"`
}

type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	Vcodec         string  `json:"vcodec"`
	Acodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
}

// ApproxSize returns the best available size estimate for a format, 0 if unknown.
func (f *Format) ApproxSize() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}

// Result is what a completed download execution reports back.
type Result struct {
	CapturedPath string // path from the last destination/merger event; verify on disk before trusting
	Stderr       string
}

// EngineError carries the engine's stderr tail so callers can classify it
// (DRM, auth, challenge) and show the engine's own message to the user.
// It deliberately does not unwrap to the bare exit error: the stderr text is
// the root cause here, "exit status 1" is not.
type EngineError struct {
	Err    error
	Output string
}

func (e *EngineError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	return e.Err.Error()
}

func headerArgs(opts *Options) []string {
	args := []string{
		"--add-header", "User-Agent: Mozilla/5.0",
		"--add-header", "Accept-Language: en-US,en;q=0.9",
	}
	if opts.CookieHeader != "" {
		args = append(args, "--add-header", "Cookie: "+opts.CookieHeader)
	}
	return args
}

// ProbeFormats runs metadata-only extraction and parses the JSON result.
func ProbeFormats(ctx context.Context, opts *Options) (*Metadata, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{"-J", "--no-download", "--no-warnings", "--no-playlist"}
	args = append(args, headerArgs(opts)...)
	if opts.ForceGeneric {
		args = append(args, "--force-generic-extractor")
	}
	args = append(args, opts.URL)

	cmd := exec.CommandContext(probeCtx, opts.binary(), args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, &EngineError{Err: err, Output: tail(stderr.String())}
	}

	var meta Metadata
	if err := json.Unmarshal(output, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse engine metadata: %w", err)
	}
	return &meta, nil
}

// PredictFilename asks the engine which filename the options would produce.
// Used as the second output-discovery strategy; the result may not exist.
func PredictFilename(ctx context.Context, opts *Options) (string, error) {
	predictCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{"--print", "filename", "--no-warnings", "--no-playlist", "-o", opts.OutputTemplate}
	if opts.Selector != "" {
		args = append(args, "-f", opts.Selector)
	}
	args = append(args, headerArgs(opts)...)
	if opts.ForceGeneric {
		args = append(args, "--force-generic-extractor")
	}
	args = append(args, opts.URL)

	cmd := exec.CommandContext(predictCtx, opts.binary(), args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("filename prediction failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

func buildDownloadArgs(opts *Options) []string {
	args := []string{
		"--newline",
		"--no-warnings",
		"--no-playlist",
		"-o", opts.OutputTemplate,
	}
	if opts.Selector != "" {
		args = append(args, "-f", opts.Selector)
	}
	if opts.ExtractMP3 {
		args = append(args, "--extract-audio", "--audio-format", "mp3")
	} else {
		args = append(args, "--merge-output-format", "mp4")
	}
	if opts.ConcurrentFragments > 1 {
		args = append(args, "--concurrent-fragments", fmt.Sprintf("%d", opts.ConcurrentFragments))
	}
	args = append(args, headerArgs(opts)...)
	if opts.ForceGeneric {
		args = append(args, "--force-generic-extractor")
	}
	args = append(args, opts.URL)
	return args
}

// Download runs extraction-with-download. onProgress is invoked on this
// goroutine for every parsed progress event; it must be cheap and must not
// touch UI state directly. Cancellation goes through ctx.
func Download(ctx context.Context, opts *Options, onProgress func(Progress)) (*Result, error) {
	cmd := exec.CommandContext(ctx, opts.binary(), buildDownloadArgs(opts)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", opts.binary(), err)
	}

	stderrChan := make(chan string, 1)
	go func() {
		defer close(stderrChan)
		stderrChan <- collectOutput(stderr)
	}()

	var capturedPath string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		progress, ok := ParseProgressLine(scanner.Text())
		if !ok {
			continue
		}
		if progress.Destination != "" {
			capturedPath = progress.Destination
		}
		if onProgress != nil {
			onProgress(progress)
		}
	}

	stderrOutput := <-stderrChan
	waitErr := cmd.Wait()

	if waitErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logrus.WithError(waitErr).Debugf("engine exited with error: %s", tail(stderrOutput))
		return nil, &EngineError{Err: waitErr, Output: tail(stderrOutput)}
	}

	return &Result{CapturedPath: capturedPath, Stderr: stderrOutput}, nil
}

func collectOutput(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	return sb.String()
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		return s[len(s)-maxStderrTail:]
	}
	return s
}
