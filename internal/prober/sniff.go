package prober

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	sniffTimeout  = 20 * time.Second
	sniffBodyMax  = 2 << 20 // pages larger than 2MB are not worth scanning
	sniffUA       = "Mozilla/5.0"
	sniffAcceptLg = "en-US,en;q=0.9"
)

var (
	// <source src="..."> and <video src="...">
	sourceTagRe = regexp.MustCompile(`<(?:source|video)[^>]+src=["']([^"']+)["']`)
	// JSON-ish and JS-ish assignments: "file": "...", hlsUrl: '...', src = "..."
	kvURLRe = regexp.MustCompile(`["']?(?:src|file|hls[A-Za-z]*|url|videoUrl)["']?\s*[:=]\s*["'](https?:[^"']+?\.(?:m3u8|mp4)[^"']*)["']`)
	// bare media URLs anywhere in the page
	bareURLRe = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.(?:m3u8|mp4)[^\s"'<>\\]*`)

	streamInfRe = regexp.MustCompile(`#EXT-X-STREAM-INF:[^\n]*RESOLUTION=(\d+)x(\d+)`)
)

// Sniffer scrapes a page for direct media URLs when the extraction engine
// cannot handle the site.
type Sniffer struct {
	client *resty.Client
}

func NewSniffer() *Sniffer {
	client := resty.New().
		SetTimeout(sniffTimeout).
		SetHeader("User-Agent", sniffUA).
		SetHeader("Accept-Language", sniffAcceptLg).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &Sniffer{client: client}
}

// Sniff fetches the page and hunts for a playable URL. HLS manifests are
// preferred over progressive files; a found manifest is fetched once more to
// read its advertised resolutions.
func (s *Sniffer) Sniff(ctx context.Context, pageURL, cookieHeader string) (*DirectMedia, error) {
	body, err := s.fetch(ctx, pageURL, cookieHeader)
	if err != nil {
		return nil, err
	}

	hls, mp4 := extractMediaURLs(body, pageURL)
	if hls == "" && mp4 == "" {
		return nil, fmt.Errorf("no direct media found in page")
	}

	if hls != "" {
		direct := &DirectMedia{Kind: "hls", URL: hls}
		if manifest, mErr := s.fetch(ctx, hls, cookieHeader); mErr == nil {
			direct.Heights = ParseHLSHeights(manifest)
		} else {
			logrus.WithError(mErr).Debug("Could not read HLS manifest, offering fixed ladder")
		}
		return direct, nil
	}
	return &DirectMedia{Kind: "mp4", URL: mp4}, nil
}

func (s *Sniffer) fetch(ctx context.Context, target, cookieHeader string) (string, error) {
	req := s.client.R().SetContext(ctx)
	if cookieHeader != "" {
		req.SetHeader("Cookie", cookieHeader)
	}
	resp, err := req.Get(target)
	if err != nil {
		return "", fmt.Errorf("page fetch failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("page fetch returned %s", resp.Status())
	}
	body := resp.String()
	if len(body) > sniffBodyMax {
		body = body[:sniffBodyMax]
	}
	return body, nil
}

// extractMediaURLs returns the first HLS and first MP4 URL found, resolved
// against the page URL. Pattern order is deliberate: explicit tags first,
// key-value assignments second, bare literals last.
func extractMediaURLs(body, pageURL string) (hls, mp4 string) {
	consider := func(raw string) {
		resolved := resolveURL(pageURL, unescapeMediaURL(raw))
		if resolved == "" {
			return
		}
		switch {
		case strings.Contains(resolved, ".m3u8") && hls == "":
			hls = resolved
		case strings.Contains(resolved, ".mp4") && mp4 == "":
			mp4 = resolved
		}
	}

	for _, m := range sourceTagRe.FindAllStringSubmatch(body, -1) {
		consider(m[1])
	}
	for _, m := range kvURLRe.FindAllStringSubmatch(body, -1) {
		consider(m[1])
	}
	for _, m := range bareURLRe.FindAllString(body, -1) {
		consider(m)
	}
	return hls, mp4
}

func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(refURL)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func unescapeMediaURL(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, `\/`, "/")
	return s
}

// ParseHLSHeights reads the vertical resolutions a master manifest advertises,
// deduplicated and sorted descending. Media playlists yield nothing.
func ParseHLSHeights(manifest string) []int {
	seen := make(map[int]bool)
	var heights []int
	for _, m := range streamInfRe.FindAllStringSubmatch(manifest, -1) {
		h, err := strconv.Atoi(m[2])
		if err != nil || h <= 0 || seen[h] {
			continue
		}
		seen[h] = true
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	return heights
}
