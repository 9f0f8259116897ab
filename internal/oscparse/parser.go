package oscparse

import (
	"strconv"
	"strings"
)

const (
	esc byte = 0x1b
	bel byte = 0x07
)

// Segment is a run of clean text that shares one sticky OSC 9012 priority.
// A chunk's clean text is cut into segments only where the priority changed
// mid-chunk; concatenating every Segment.Text in order reproduces exactly
// what Parse's clean-text return value would be.
type Segment struct {
	Text     string
	Priority int
}

// Parser is a streaming recognizer for this system's private OSC codes. A
// single Parser must be fed every chunk of a given PTY's byte stream, in
// order; it carries partial sequences across calls so a BEL split across two
// Parse invocations is never lost and never corrupts the clean-text output.
//
// Not safe for concurrent use — the owning shellio.Session is the single
// reader of a given PTY's bytes, so a single goroutine ever touches a
// Parser.
type Parser struct {
	carry    []byte // bytes since the last unterminated ESC ] we've seen
	priority int    // sticky OSC 9012 priority, carried across lines and calls
}

// New returns a Parser with the default (lowest) sticky priority.
func New() *Parser {
	return &Parser{}
}

// Priority returns the sticky line priority currently in effect.
func (p *Parser) Priority() int { return p.priority }

// Parse consumes chunk and returns the clean text extracted from it (with all
// recognized sequences stripped) plus the events those sequences produced.
// Malformed or unrecognized payloads are dropped silently — they never panic
// and never poison the carry buffer for subsequent input.
func (p *Parser) Parse(chunk []byte) (string, []Event) {
	segs, events := p.ParseTagged(chunk)
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String(), events
}

// ParseTagged is Parse's lower-level sibling: it exposes the sticky priority
// each run of text was produced under, so the owning shellio.Session can
// append each completed terminal line to its hub's FIFO with the right
// priority instead of only the priority in effect at end-of-chunk.
func (p *Parser) ParseTagged(chunk []byte) ([]Segment, []Event) {
	buf := append(p.carry, chunk...)
	p.carry = nil

	var segments []Segment
	var events []Event

	var cur strings.Builder
	curPriority := p.priority
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		segments = append(segments, Segment{Text: cur.String(), Priority: curPriority})
		cur.Reset()
	}

	i := 0
	for i < len(buf) {
		start := indexESCBracket(buf, i)
		if start < 0 {
			if buf[len(buf)-1] == esc {
				// A chunk can split exactly between ESC and ']'; carry the
				// lone ESC instead of flushing it, so the next Parse call
				// still recognizes the sequence (streaming-safety invariant,
				// spec §4.A, §8 property 6).
				cur.Write(buf[i : len(buf)-1])
				p.carry = []byte{esc}
			} else {
				cur.Write(buf[i:])
			}
			break
		}
		cur.Write(buf[i:start])

		end, ok := findBEL(buf, start+2)
		if !ok {
			// Incomplete sequence: keep from the ESC onward for next call.
			p.carry = append([]byte(nil), buf[start:]...)
			flush()
			return segments, events
		}

		seq := buf[start+2 : end] // between "ESC ]" and the terminating BEL
		before := p.priority
		if ev, ok := p.classify(string(seq)); ok {
			events = append(events, ev)
		}
		if p.priority != before {
			flush()
			curPriority = p.priority
		}
		i = end + 1
	}
	flush()

	return segments, events
}

// indexESCBracket finds the next "ESC ]" starting at or after from, or -1.
func indexESCBracket(buf []byte, from int) int {
	for j := from; j+1 < len(buf); j++ {
		if buf[j] == esc && buf[j+1] == ']' {
			return j
		}
	}
	return -1
}

// findBEL returns the index of the next BEL at or after from.
func findBEL(buf []byte, from int) (int, bool) {
	for j := from; j < len(buf); j++ {
		if buf[j] == bel {
			return j, true
		}
	}
	return 0, false
}

// classify parses one sequence's payload "<code>;<rest>" into an Event.
// Malformed payloads are dropped (ok=false); the caller never panics.
func (p *Parser) classify(seq string) (Event, bool) {
	codeStr, rest, found := strings.Cut(seq, ";")
	if !found {
		return Event{}, false
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return Event{}, false
	}
	switch code {
	case 1337:
		return p.parseLegacyKV(rest)
	case 9000:
		return p.parseSuggestions(rest)
	case 9001:
		return p.parseDirectory(rest)
	case 9002:
		return p.parseCommandResult(rest)
	case 9003:
		return Event{Kind: EventCwd, Text: rest}, true
	case 9005:
		return p.parseDangerous(rest)
	case 9006:
		return p.parseShellReady(rest)
	case 9007:
		return p.parseCompletionRequest(rest)
	case 9010:
		return Event{Kind: EventContextRequest, Text: rest}, true
	case 9012:
		v, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || v < 0 || v > 3 {
			return Event{}, false
		}
		p.priority = v
		return Event{}, false // sticky state change only, no event emitted
	default:
		return Event{}, false
	}
}

func (p *Parser) parseLegacyKV(payload string) (Event, bool) {
	key, val, found := strings.Cut(payload, "=")
	if !found {
		return Event{}, false
	}
	switch key {
	case "CurrentDir":
		return Event{Kind: EventChangeDir, Text: val}, true
	case "ZoomLevel":
		return Event{Kind: EventZoom, Text: val}, true
	case "SetLayout":
		return Event{Kind: EventSetLayout, Text: val}, true
	default:
		return Event{}, false
	}
}

func (p *Parser) parseSuggestions(payload string) (Event, bool) {
	groups := strings.Split(payload, "|")
	out := make([]Suggestion, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		fields := strings.SplitN(g, ";", 4)
		s := Suggestion{}
		if len(fields) > 0 {
			s.Text = fields[0]
		}
		if len(fields) > 1 {
			s.Command = fields[1]
		}
		if len(fields) > 2 {
			s.Description = fields[2]
		}
		if len(fields) > 3 {
			s.Category = fields[3]
		}
		out = append(out, s)
	}
	return Event{Kind: EventSuggestions, Suggestions: out}, true
}

func (p *Parser) parseDirectory(payload string) (Event, bool) {
	lines := strings.Split(payload, "\n")
	if len(lines) == 0 {
		return Event{}, false
	}
	header := strings.SplitN(lines[0], ";", 5)
	if len(header) < 5 {
		return Event{}, false
	}
	dir := Directory{Path: header[0], Parent: header[1]}
	dir.Total, _ = strconv.Atoi(header[2])
	dir.Hidden, _ = strconv.Atoi(header[3])
	dir.Selected, _ = strconv.Atoi(header[4])

	for _, row := range lines[1:] {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		fields := strings.SplitN(row, ";", 6)
		if len(fields) < 5 {
			continue
		}
		entry := DirEntry{
			Name:  fields[0],
			Type:  fields[1],
			Size:  fields[2],
			Perm:  fields[3],
			Mtime: fields[4],
		}
		if len(fields) > 5 {
			entry.Flagged = fields[5] == "1"
		}
		dir.Entries = append(dir.Entries, entry)
	}
	return Event{Kind: EventDirectory, Directory: dir}, true
}

func (p *Parser) parseCommandResult(payload string) (Event, bool) {
	fields := strings.SplitN(payload, ";", 3)
	if len(fields) < 2 {
		return Event{}, false
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return Event{}, false
	}
	cr := CommandResult{Command: fields[0], Status: status}
	if len(fields) > 2 {
		cr.Preview = fields[2]
	}
	return Event{Kind: EventCommandResult, CommandResult: cr}, true
}

func (p *Parser) parseDangerous(payload string) (Event, bool) {
	fields := strings.SplitN(payload, ";", 2)
	if len(fields) != 2 {
		return Event{}, false
	}
	return Event{Kind: EventDangerousCommand, Dangerous: DangerousCommand{Risk: fields[0], Command: fields[1]}}, true
}

func (p *Parser) parseShellReady(payload string) (Event, bool) {
	fields := strings.SplitN(payload, ";", 2)
	ready := ShellReady{Type: fields[0]}
	if len(fields) > 1 {
		ready.Version = fields[1]
	}
	return Event{Kind: EventShellReady, Ready: ready}, true
}

func (p *Parser) parseCompletionRequest(payload string) (Event, bool) {
	fields := strings.SplitN(payload, ";", 2)
	cr := CompletionRequest{Partial: fields[0]}
	if len(fields) > 1 {
		cr.Cursor, _ = strconv.Atoi(fields[1])
	}
	return Event{Kind: EventRequestCompletion, CompletionRequest: cr}, true
}
