package requirements

import "strings"

// JoinLines joins backslash continuations and strips comment lines.
// Every physical line is trimmed first; blank lines and lines starting with
// "#" are dropped and never terminate a continuation.
func JoinLines(lines []string) []string {
	var out []string
	var joined strings.Builder
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, `\`) {
			joined.WriteString(line[:len(line)-1])
			continue
		}
		joined.WriteString(line)
		out = append(out, joined.String())
		joined.Reset()
	}
	if joined.Len() > 0 {
		out = append(out, joined.String())
	}
	return out
}

// SplitLines splits text into physical lines, accepting any line ending.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// YieldLines returns the non-blank, non-comment lines of text, trimmed.
// It is the splitting used for multi-line configuration values such as
// setup.cfg's install_requires and for top_level.txt metadata files.
func YieldLines(text string) []string {
	var out []string
	for _, line := range SplitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
