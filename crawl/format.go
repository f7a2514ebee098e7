package crawl

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Summary describes what a batch capture produced.
type Summary struct {
	Captured int
	Failed   int

	// Nodes counts merged tree nodes, Lines the rendered lines.
	Nodes int
	Lines int
	Bytes int
}

// Summarize totals the trees of the captured pages in res.
func Summarize(res *Result) Summary {
	s := Summary{Captured: res.Captured, Failed: res.Failed, Bytes: res.Bytes}
	for _, p := range res.Pages {
		if p.Err != nil {
			continue
		}
		if p.Snapshot != nil {
			s.Nodes += len(p.Snapshot.Nodes)
		}
		if p.Text != "" {
			s.Lines += strings.Count(p.Text, "\n") + 1
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d of %d pages, %d nodes, %d lines, %s",
		s.Captured, s.Captured+s.Failed, s.Nodes, s.Lines, formatSize(s.Bytes))
}

// formatSize renders n bytes with one decimal in the largest fitting unit.
func formatSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	size := float64(n) / 1024
	for _, unit := range []string{"KB", "MB"} {
		if size < 1024 || unit == "MB" {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return ""
}

// DisplayURL shortens a page URL for progress output. The scheme and a
// trailing slash are dropped; if the rest is longer than maxLen runes the
// middle of the path is elided, keeping the host and the last segment, and
// failing that the end is cut. A maxLen of zero or less disables shortening.
func DisplayURL(rawURL string, maxLen int) string {
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimSuffix(s, "/")

	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	if slash := strings.IndexByte(s, '/'); slash >= 0 {
		last := s[strings.LastIndexByte(s, '/')+1:]
		if strings.Contains(s[slash+1:], "/") {
			short := s[:slash] + "/…/" + last
			if utf8.RuneCountInString(short) <= maxLen {
				return short
			}
		}
	}

	runes := []rune(s)
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}
