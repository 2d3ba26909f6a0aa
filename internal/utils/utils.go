package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

var urlRe = regexp.MustCompile(`(?i)(https?://[^\s]+)`)

// ExtractURL returns the first HTTP(S) URL found in text, or "".
func ExtractURL(text string) string {
	if text == "" {
		return ""
	}
	return urlRe.FindString(text)
}

func IsValidLink(text string) bool {
	parsedURL, err := url.ParseRequestURI(text)
	if err != nil {
		return false
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false
	}

	re := regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return re.MatchString(parsedURL.Hostname())
}

// DomainFromURL returns the lower-cased host of a URL (cookie store key).
func DomainFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

const maxFileNameLength = 150

var fileNameRe = regexp.MustCompile(`[<>:"/\\|?*]+`)

// SanitizeFileName replaces characters unsafe for filesystems and caps length.
func SanitizeFileName(name string) string {
	clean := fileNameRe.ReplaceAllString(name, "_")
	clean = strings.TrimSpace(clean)
	if strings.Trim(clean, "_ ") == "" {
		clean = "media"
	}
	runes := []rune(clean)
	if len(runes) > maxFileNameLength {
		clean = string(runes[:maxFileNameLength])
	}
	return clean
}

// GenerateFileName builds "title [id].ext" the way the output template does,
// so directory scans by media id can find the file later.
func GenerateFileName(title, mediaID, ext string) string {
	if ext == "" {
		ext = "mp4"
	}
	return fmt.Sprintf("%s [%s].%s", SanitizeFileName(title), mediaID, ext)
}

func HumanBytes(n int64) string {
	const step = 1024.0
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < step {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= step
	}
	return fmt.Sprintf("%.1f PB", size)
}

func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// SanitizedCookiePreview hides everything except cookie key names.
func SanitizedCookiePreview(cookie string) string {
	var keys []string
	for _, kv := range strings.Split(cookie, ";") {
		if k, _, ok := strings.Cut(kv, "="); ok {
			keys = append(keys, strings.TrimSpace(k)+"=***")
		}
		if len(keys) == 10 {
			break
		}
	}
	return strings.Join(keys, "; ")
}

func HasEnoughSpace(path string, requiredSpace int64) bool {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		logrus.WithError(err).Warn("Failed to get filesystem stats")
		return false
	}
	availableSpace := stat.Bavail * uint64(stat.Bsize)
	return availableSpace >= uint64(requiredSpace)
}

// DiskUsageString reports used/total/free for a path, for /status.
func DiskUsageString(path string) string {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return "disk usage unavailable"
	}
	total := int64(stat.Blocks) * stat.Bsize
	free := int64(stat.Bavail) * stat.Bsize
	used := total - free
	return fmt.Sprintf("Used %s / Total %s (Free %s)", HumanBytes(used), HumanBytes(total), HumanBytes(free))
}
