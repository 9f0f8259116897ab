package oscparse

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// TruncateGraphemes caps s at maxClusters grapheme clusters without ever
// splitting a multi-byte cluster in half — used when a single OSC-framed
// terminal line would otherwise blow a hub's per-line display budget.
func TruncateGraphemes(s string, maxClusters int) string {
	if maxClusters <= 0 {
		return ""
	}
	var b strings.Builder
	n := 0
	for cluster := range graphemes.FromString(s) {
		if n >= maxClusters {
			break
		}
		b.WriteString(cluster)
		n++
	}
	return b.String()
}
