package wstate

import (
	"strings"
	"time"

	"silexa/brain/internal/oscparse"
)

// maxLineClusters caps a single terminal line at this many grapheme
// clusters before it's truncated — long single lines (e.g. a shell that
// never emits a newline) must never grow a hub's FIFO entry without bound,
// and truncation must never split a multi-byte cluster.
const maxLineClusters = 4096

// AppendLine pushes one completed terminal line onto a hub's bounded FIFO,
// evicting the oldest line first when the buffer is already at capacity
// (spec §3, §4.B, invariant 1).
func AppendLine(h *Hub, text string, priority int) {
	if text == "" {
		return
	}
	if runeClusterCount(text) > maxLineClusters {
		text = oscparse.TruncateGraphemes(text, maxLineClusters)
	}
	limit := h.BufferLimit
	if limit <= 0 {
		limit = defaultBufferLimit
	}
	h.TerminalOutput = append(h.TerminalOutput, TerminalLine{
		Text:      text,
		Priority:  priority,
		Timestamp: time.Now(),
	})
	if over := len(h.TerminalOutput) - limit; over > 0 {
		h.TerminalOutput = h.TerminalOutput[over:]
	}
}

// AppendLines splits a completed text run on newlines and appends each
// non-empty line with the given sticky priority.
func AppendLines(h *Hub, text string, priority int) {
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		AppendLine(h, line, priority)
	}
}

func runeClusterCount(s string) int {
	// Cheap upper bound: byte length is always >= cluster count, so the rune
	// count below only runs when a line is plausibly over budget. The rune
	// count is itself an upper bound on clusters; TruncateGraphemes makes the
	// exact cut.
	if len(s) <= maxLineClusters {
		return len(s)
	}
	n := 0
	for range s {
		n++
	}
	return n
}
