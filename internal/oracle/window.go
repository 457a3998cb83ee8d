package oracle

import "strings"

// DefaultWindowBytes is the default chapter text size threshold above which
// a chapter is sharded into multiple oracle windows.
const DefaultWindowBytes = 24 * 1024

// Windows shards chapter text into ordered, paragraph-aligned windows of at
// most limit bytes. Paragraphs are never split across windows, so a single
// paragraph larger than limit becomes its own oversized window. Text at or
// under the limit yields exactly one window.
func Windows(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultWindowBytes
	}
	if len(text) <= limit {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")

	var windows []string
	var current strings.Builder
	for _, para := range paragraphs {
		if current.Len() > 0 && current.Len()+2+len(para) > limit {
			windows = append(windows, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		windows = append(windows, current.String())
	}
	return windows
}
