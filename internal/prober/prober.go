package prober

import (
	"context"
	"sort"

	"telegram-fetch-bot/internal/downloader"
	"telegram-fetch-bot/internal/utils"

	"github.com/sirupsen/logrus"
)

// maxQualityButtons caps the quality keyboard to one screen of options.
const maxQualityButtons = 6

// fallbackLadder is offered when format metadata cannot be obtained and the
// page yields a direct manifest of unknown quality.
var fallbackLadder = []int{1080, 720, 480, 360}

// FormatOption is one selectable quality, bound to a keyboard button.
type FormatOption struct {
	Label      string
	Token      string
	ApproxSize int64 // 0 when unknown
}

// DirectMedia is a playable URL sniffed out of the page itself, used by the
// fallback strategies when the engine cannot extract the site.
type DirectMedia struct {
	Kind    string // "hls" or "mp4"
	URL     string
	Heights []int // descending; empty when the manifest was not readable
}

// Result is the probe outcome offered to the user for selection.
type Result struct {
	Title      string
	MediaID    string
	Duration   float64
	Options    []FormatOption
	Direct     *DirectMedia
	BestEffort bool // options came from the fixed ladder, not real metadata
}

// Failure is a classified probe failure that should be surfaced to the user
// with a remediation hint instead of falling through to sniffing.
type Failure struct {
	Kind   utils.FailureKind
	Reason string
}

func (f *Failure) Error() string { return f.Reason }

type Prober struct {
	binary  string
	sniffer *Sniffer
}

func New(engineBinary string) *Prober {
	return &Prober{
		binary:  engineBinary,
		sniffer: NewSniffer(),
	}
}

// Probe resolves what a URL offers. The strategy order mirrors the download
// ladder: site-aware engine probe, generic extractor probe, then page
// sniffing. needs_auth and bot_challenge failures short-circuit with a
// classified Failure; only unsupported sites fall through to sniffing.
func (p *Prober) Probe(ctx context.Context, url, cookieHeader string, forceGeneric bool) (*Result, error) {
	opts := &downloader.Options{
		URL:          url,
		CookieHeader: cookieHeader,
		ForceGeneric: forceGeneric,
		Binary:       p.binary,
	}

	meta, err := downloader.ProbeFormats(ctx, opts)
	if err == nil {
		return resultFromMetadata(meta), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	text := err.Error()
	// Auth walls and challenge pages defeat the generic extractor and the
	// sniffer alike; report them right away so the user can supply cookies
	// and recheck.
	switch utils.ClassifyFailure(text) {
	case utils.FailureNeedsAuth:
		return nil, &Failure{Kind: utils.FailureNeedsAuth, Reason: utils.RootError(err).Error()}
	case utils.FailureBotChallenge:
		return nil, &Failure{Kind: utils.FailureBotChallenge, Reason: utils.RootError(err).Error()}
	}
	if utils.IsDRMError(text) {
		return nil, utils.WrapError(utils.ErrDrmProtected, "media is DRM protected", map[string]any{"url": url})
	}

	if !forceGeneric {
		logrus.WithField("url", url).Debug("Site-aware probe failed, retrying with generic extractor")
		opts.ForceGeneric = true
		if meta, genericErr := downloader.ProbeFormats(ctx, opts); genericErr == nil {
			return resultFromMetadata(meta), nil
		}
		opts.ForceGeneric = false
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logrus.WithField("url", url).Info("Engine probe failed, sniffing page for direct media")
	direct, sniffErr := p.sniffer.Sniff(ctx, url, cookieHeader)
	if sniffErr != nil {
		return nil, &Failure{Kind: utils.FailureUnsupported, Reason: utils.RootError(err).Error()}
	}

	return resultFromDirect(direct), nil
}

func resultFromMetadata(meta *downloader.Metadata) *Result {
	result := &Result{
		Title:    meta.Title,
		MediaID:  meta.ID,
		Duration: meta.Duration,
	}

	// Best available size per height; mp4 wins ties so the picked button
	// matches what the selector will most likely fetch.
	type candidate struct {
		size  int64
		isMP4 bool
	}
	byHeight := make(map[int]candidate)
	for i := range meta.Formats {
		f := &meta.Formats[i]
		if f.Height <= 0 || f.Vcodec == "none" {
			continue
		}
		existing, seen := byHeight[f.Height]
		next := candidate{size: f.ApproxSize(), isMP4: f.Ext == "mp4"}
		if !seen || (next.isMP4 && !existing.isMP4) || (next.isMP4 == existing.isMP4 && next.size > existing.size) {
			byHeight[f.Height] = next
		}
	}

	heights := make([]int, 0, len(byHeight))
	for h := range byHeight {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	result.Options = append(result.Options, FormatOption{
		Label: downloader.TokenLabel(downloader.TokenBest),
		Token: downloader.TokenBest,
	})
	for _, h := range heights {
		if len(result.Options) >= maxQualityButtons-1 {
			break
		}
		token := downloader.TokenForHeight(h)
		result.Options = append(result.Options, FormatOption{
			Label:      downloader.TokenLabel(token),
			Token:      token,
			ApproxSize: byHeight[h].size,
		})
	}
	result.Options = append(result.Options, FormatOption{
		Label: downloader.TokenLabel(downloader.TokenMP3),
		Token: downloader.TokenMP3,
	})

	return result
}

// LadderOptions is the best-effort quality set offered when nothing is known
// about the media, e.g. after the user chooses to try an unsupported site.
func LadderOptions() []FormatOption {
	options := []FormatOption{{
		Label: downloader.TokenLabel(downloader.TokenBest),
		Token: downloader.TokenBest,
	}}
	for _, h := range fallbackLadder {
		token := downloader.TokenForHeight(h)
		options = append(options, FormatOption{
			Label: downloader.TokenLabel(token),
			Token: token,
		})
	}
	options = append(options, FormatOption{
		Label: downloader.TokenLabel(downloader.TokenMP3),
		Token: downloader.TokenMP3,
	})
	return options
}

func resultFromDirect(direct *DirectMedia) *Result {
	result := &Result{
		Direct:     direct,
		BestEffort: true,
	}

	heights := direct.Heights
	if len(heights) == 0 {
		heights = fallbackLadder
	}

	result.Options = append(result.Options, FormatOption{
		Label: downloader.TokenLabel(downloader.TokenBest),
		Token: downloader.TokenBest,
	})
	for _, h := range heights {
		if len(result.Options) >= maxQualityButtons {
			break
		}
		token := downloader.TokenForHeight(h)
		result.Options = append(result.Options, FormatOption{
			Label: downloader.TokenLabel(token),
			Token: token,
		})
	}
	return result
}
