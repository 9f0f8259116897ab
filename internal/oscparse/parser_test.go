package oscparse

import "testing"

func seq(code string, payload string) string {
	return "\x1b]" + code + ";" + payload + "\x07"
}

func TestCwdSequence(t *testing.T) {
	p := New()
	clean, events := p.Parse([]byte("hello " + seq("9003", "/home/u") + " world"))
	if clean != "hello  world" {
		t.Fatalf("clean = %q", clean)
	}
	if len(events) != 1 || events[0].Kind != EventCwd || events[0].Text != "/home/u" {
		t.Fatalf("events = %+v", events)
	}
}

func TestSplitAcrossChunks(t *testing.T) {
	whole := "before " + seq("9003", "/x/y") + " after"
	mid := len(whole) / 2

	p1 := New()
	c1, e1 := p1.Parse([]byte(whole))

	p2 := New()
	cleanA, eventsA := p2.Parse([]byte(whole[:mid]))
	cleanB, eventsB := p2.Parse([]byte(whole[mid:]))

	if c1 != cleanA+cleanB {
		t.Fatalf("streaming-safety violated: %q != %q+%q", c1, cleanA, cleanB)
	}
	gotEvents := append(eventsA, eventsB...)
	if len(gotEvents) != len(e1) {
		t.Fatalf("event count differs: %d vs %d", len(gotEvents), len(e1))
	}
	for i := range e1 {
		if gotEvents[i].Kind != e1[i].Kind || gotEvents[i].Text != e1[i].Text {
			t.Fatalf("event %d differs: %+v vs %+v", i, gotEvents[i], e1[i])
		}
	}
}

func TestSplitExactlyBetweenESCAndBracket(t *testing.T) {
	whole := "before " + seq("9003", "/x/y") + " after"
	escIdx := len(([]byte)("before ")) // index of the ESC byte

	p1 := New()
	c1, e1 := p1.Parse([]byte(whole))

	p2 := New()
	cleanA, eventsA := p2.Parse([]byte(whole[:escIdx+1])) // ends in a lone ESC
	cleanB, eventsB := p2.Parse([]byte(whole[escIdx+1:]))

	if c1 != cleanA+cleanB {
		t.Fatalf("streaming-safety violated on ESC-boundary split: %q != %q+%q", c1, cleanA, cleanB)
	}
	gotEvents := append(eventsA, eventsB...)
	if len(gotEvents) != len(e1) {
		t.Fatalf("event count differs: %d vs %d", len(gotEvents), len(e1))
	}
	for i := range e1 {
		if gotEvents[i].Kind != e1[i].Kind || gotEvents[i].Text != e1[i].Text {
			t.Fatalf("event %d differs: %+v vs %+v", i, gotEvents[i], e1[i])
		}
	}
}

func TestStickyPriority(t *testing.T) {
	p := New()
	_, _ = p.Parse([]byte(seq("9012", "2") + "foo\n"))
	if p.Priority() != 2 {
		t.Fatalf("priority = %d, want 2", p.Priority())
	}
	_, _ = p.Parse([]byte(seq("9012", "0") + "bar\n"))
	if p.Priority() != 0 {
		t.Fatalf("priority = %d, want 0", p.Priority())
	}
}

func TestMalformedSequenceDropped(t *testing.T) {
	p := New()
	clean, events := p.Parse([]byte("a" + seq("9999", "whatever") + "b"))
	if clean != "ab" {
		t.Fatalf("clean = %q", clean)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for unknown code, got %+v", events)
	}
}

func TestIncompleteSequenceCarried(t *testing.T) {
	p := New()
	clean, events := p.Parse([]byte("start" + "\x1b]9003;/par"))
	if clean != "start" {
		t.Fatalf("clean = %q", clean)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events yet, got %+v", events)
	}
	clean2, events2 := p.Parse([]byte("tial\x07end"))
	if clean2 != "end" {
		t.Fatalf("clean2 = %q", clean2)
	}
	if len(events2) != 1 || events2[0].Text != "/partial" {
		t.Fatalf("events2 = %+v", events2)
	}
}

func TestDangerousCommandEvent(t *testing.T) {
	p := New()
	_, events := p.Parse([]byte(seq("9005", "Critical;rm -rf /")))
	if len(events) != 1 || events[0].Kind != EventDangerousCommand {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Dangerous.Risk != "Critical" || events[0].Dangerous.Command != "rm -rf /" {
		t.Fatalf("dangerous = %+v", events[0].Dangerous)
	}
}

func TestDirectoryListing(t *testing.T) {
	payload := "/home;/;2;0;1\nfoo.txt;file;120;rw-r--r--;2024-01-01;0\nbar;dir;0;rwxr-xr-x;2024-01-02;1"
	p := New()
	_, events := p.Parse([]byte(seq("9001", payload)))
	if len(events) != 1 || events[0].Kind != EventDirectory {
		t.Fatalf("events = %+v", events)
	}
	d := events[0].Directory
	if d.Path != "/home" || d.Total != 2 || len(d.Entries) != 2 {
		t.Fatalf("directory = %+v", d)
	}
	if !d.Entries[1].Flagged {
		t.Fatalf("expected second entry flagged")
	}
}

func TestParseTaggedStickyPriorityPerLine(t *testing.T) {
	p := New()
	input := seq("9012", "2") + "foo\n" + seq("9012", "0") + "bar\n"
	segs, _ := p.ParseTagged([]byte(input))
	if len(segs) != 2 {
		t.Fatalf("segments = %+v", segs)
	}
	if segs[0].Text != "foo\n" || segs[0].Priority != 2 {
		t.Fatalf("segment 0 = %+v", segs[0])
	}
	if segs[1].Text != "bar\n" || segs[1].Priority != 0 {
		t.Fatalf("segment 1 = %+v", segs[1])
	}
}

func TestTruncateGraphemes(t *testing.T) {
	got := TruncateGraphemes("hello", 3)
	if got != "hel" {
		t.Fatalf("got %q", got)
	}
}
