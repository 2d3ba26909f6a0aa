package manager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"telegram-fetch-bot/internal/downloader"
	"telegram-fetch-bot/internal/models"
	"telegram-fetch-bot/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// attempt is one rung of the fallback ladder.
type attempt struct {
	name string
	run  func(ctx context.Context) (string, error) // returns confirmed output path
}

const rawChunkSize = 1 << 20

// buildAttempts assembles the fallback ladder for a job. Rungs that cannot
// apply (no sniffed URL, force-generic already first) are omitted. Order:
//
//  1. site-aware engine run with credentials
//  2. engine run with the generic extractor
//  3. engine run against a sniffed HLS manifest
//  4. raw streamed fetch of a sniffed progressive file
func (m *Manager) buildAttempts(job models.Job, cookieHeader string) []attempt {
	baseOpts := func(target string) *downloader.Options {
		return &downloader.Options{
			URL:                 target,
			Selector:            downloader.BuildSelector(job.Format),
			OutputTemplate:      m.outputTemplate(),
			CookieHeader:        cookieHeader,
			ConcurrentFragments: m.cfg.DownloadSettings.ConcurrentFragments,
			ExtractMP3:          downloader.IsAudioToken(job.Format),
			Binary:              m.engineBinary,
		}
	}

	var attempts []attempt

	if !job.ForceGeneric {
		attempts = append(attempts, attempt{
			name: "site extractor",
			run: func(ctx context.Context) (string, error) {
				return m.runEngine(ctx, job, baseOpts(job.URL))
			},
		})
	}

	attempts = append(attempts, attempt{
		name: "generic extractor",
		run: func(ctx context.Context) (string, error) {
			opts := baseOpts(job.URL)
			opts.ForceGeneric = true
			return m.runEngine(ctx, job, opts)
		},
	})

	if job.SniffedHLS != "" {
		attempts = append(attempts, attempt{
			name: "sniffed manifest",
			run: func(ctx context.Context) (string, error) {
				return m.runEngine(ctx, job, baseOpts(job.SniffedHLS))
			},
		})
	}

	if job.SniffedMP4 != "" {
		attempts = append(attempts, attempt{
			name: "raw fetch",
			run: func(ctx context.Context) (string, error) {
				return m.rawFetch(ctx, job)
			},
		})
	}

	return attempts
}

// runEngine executes one engine download and resolves the output path.
func (m *Manager) runEngine(ctx context.Context, job models.Job, opts *downloader.Options) (string, error) {
	result, err := downloader.Download(ctx, opts, func(p downloader.Progress) {
		m.onEngineProgress(job, p)
	})
	if err != nil {
		return "", err
	}
	if result.Stderr != "" {
		m.registry.AppendLog(job.ID, utils.StripCookieValues(result.Stderr))
	}
	return discoverOutput(ctx, m.cfg.DownloadDir, result.CapturedPath, opts, job.MediaID)
}

// rawFetch streams a progressive file over plain HTTP. The last resort rung:
// no engine, no selector, just the bytes. Cancellation is checked on every
// chunk boundary and a partial file is removed on any failure.
func (m *Manager) rawFetch(ctx context.Context, job models.Job) (outPath string, err error) {
	title := job.Title
	if title == "" {
		title = utils.DomainFromURL(job.URL)
	}
	mediaID := job.MediaID
	if mediaID == "" {
		mediaID = job.ID[:8]
	}
	outPath = filepath.Join(m.cfg.DownloadDir, utils.GenerateFileName(title, mediaID, "mp4"))

	resp, err := m.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(job.SniffedMP4)
	if err != nil {
		return "", utils.WrapError(utils.ErrDownloadFailed, "raw fetch request failed", map[string]any{"job_id": job.ID})
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 400 {
		return "", utils.WrapError(utils.ErrDownloadFailed, fmt.Sprintf("raw fetch returned %s", resp.Status()), map[string]any{"job_id": job.ID})
	}
	total := resp.RawResponse.ContentLength

	out, err := os.Create(outPath)
	if err != nil {
		return "", utils.WrapError(utils.ErrDownloadFailed, "cannot create output file", map[string]any{"path": outPath})
	}
	defer func() {
		out.Close()
		if err != nil {
			if rmErr := os.Remove(out.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
				logrus.WithError(rmErr).Warn("Failed to remove partial file")
			}
		}
	}()

	buf := make([]byte, rawChunkSize)
	var downloaded int64
	lastReport := time.Time{}
	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if m.registry.IsCancelled(job.ID) {
			return "", utils.ErrCancelled
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return "", utils.WrapError(utils.ErrDownloadFailed, "write failed", map[string]any{"path": outPath})
			}
			downloaded += int64(n)
			if time.Since(lastReport) >= time.Second {
				lastReport = time.Now()
				m.onRawProgress(job, downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// Context cancellation surfaces through the read; report it as
			// such so the job settles cancelled, not failed.
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", utils.WrapError(utils.ErrDownloadFailed, "stream read failed", map[string]any{"job_id": job.ID})
		}
	}

	if err := out.Sync(); err != nil {
		logrus.WithError(err).Debug("Sync after raw fetch failed")
	}
	return outPath, nil
}

func newRawClient(timeout time.Duration) *resty.Client {
	client := resty.New().
		SetHeader("User-Agent", "Mozilla/5.0").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}
