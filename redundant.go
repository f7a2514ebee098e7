package axtree

import "strings"

// redundancyWindow is the number of retained lines a StaticText line is
// compared against.
const redundancyWindow = 3

// RemoveRedundantStaticText drops StaticText lines whose text already appears
// in the previous three retained lines. The window only ever holds lines
// that were kept, so a run of drops lets it reach further back into the
// input.
func RemoveRedundantStaticText(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(trimSpace(line), RoleStaticText) {
			content := staticTextContent(line)
			start := max(len(kept)-redundancyWindow, 0)
			if strings.Contains(strings.Join(kept[start:], "\n"), content) {
				continue
			}
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// staticTextContent returns the text between the first occurrence of
// "StaticText" and the next one (or the end of the line), with surrounding
// whitespace and single quotes removed.
func staticTextContent(line string) string {
	_, rest, _ := strings.Cut(line, RoleStaticText)
	if i := strings.Index(rest, RoleStaticText); i >= 0 {
		rest = rest[:i]
	}
	return strings.Trim(trimSpace(rest), "'")
}
