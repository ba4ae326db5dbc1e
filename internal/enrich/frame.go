// Package enrich attaches source context, attribution, and a root-cause
// narrative to an error record. Enrichment is partial-failure tolerant:
// frames whose files cannot be resolved produce empty contexts instead of
// failing the run, and missing blame is an expected condition.
package enrich

import (
	"strconv"
	"strings"
)

// Frame is one parsed stack-trace entry.
type Frame struct {
	FilePath string
	Line     int
	Function string
}

// parseFrame decodes a "file:line: function()" stack-trace string. The
// second return is false when the string does not match that shape.
func parseFrame(s string) (Frame, bool) {
	first := strings.Index(s, ":")
	if first <= 0 {
		return Frame{}, false
	}
	rest := s[first+1:]

	second := strings.Index(rest, ":")
	lineStr := rest
	fn := ""
	if second >= 0 {
		lineStr = rest[:second]
		fn = strings.TrimSpace(rest[second+1:])
	}

	line, err := strconv.Atoi(strings.TrimSpace(lineStr))
	if err != nil || line <= 0 {
		return Frame{}, false
	}

	return Frame{
		FilePath: s[:first],
		Line:     line,
		Function: fn,
	}, true
}
