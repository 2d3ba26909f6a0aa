package downloader

import "strings"

// CommandPreview renders the engine invocation a job would run, with the
// cookie header value masked. Shown to the user on request for debugging.
func CommandPreview(opts *Options) string {
	args := buildDownloadArgs(opts)

	var sb strings.Builder
	sb.WriteString(opts.binary())
	for _, arg := range args {
		sb.WriteString(" ")
		if strings.HasPrefix(arg, "Cookie: ") {
			sb.WriteString(quoteArg("Cookie: ***"))
			continue
		}
		sb.WriteString(quoteArg(arg))
	}
	return sb.String()
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\"'[]<>&|*?") {
		return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return arg
}
