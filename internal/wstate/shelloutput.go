package wstate

import (
	"encoding/json"
	"fmt"

	"silexa/brain/internal/oscparse"
)

// ProcessShellOutput feeds one PTY read's worth of bytes through the OSC
// parser and applies every resulting event to hub, plus appends the clean
// text segments to hub's terminal output at their tagged priority. This is
// the only place shellio and oscparse output reach the world-state, so it
// runs under Store.Do from the reader-loop's perspective (spec §4.A, §5).
func ProcessShellOutput(hub *Hub, p *oscparse.Parser, chunk []byte) []oscparse.Event {
	segments, events := p.ParseTagged(chunk)
	for _, seg := range segments {
		AppendLines(hub, seg.Text, seg.Priority)
	}
	for _, ev := range events {
		applyShellEvent(hub, ev)
	}
	return events
}

func applyShellEvent(hub *Hub, ev oscparse.Event) {
	switch ev.Kind {
	case oscparse.EventCwd, oscparse.EventChangeDir:
		hub.CurrentDirectory = ev.Text
	case oscparse.EventZoom:
		// Legacy OSC 1337 zoom-level hints never change the level here; the
		// event is only returned to the caller.
	case oscparse.EventSetLayout:
		// Presentation hint only; no world-state field currently tracks it.
	case oscparse.EventSuggestions:
		hub.Suggestions = make([]Suggestion, 0, len(ev.Suggestions))
		for _, s := range ev.Suggestions {
			hub.Suggestions = append(hub.Suggestions, Suggestion{
				Text:        s.Text,
				Command:     s.Command,
				Description: s.Description,
				Category:    s.Category,
			})
		}
	case oscparse.EventDirectory:
		snap := &DirectorySnapshot{
			Path:     ev.Directory.Path,
			Parent:   ev.Directory.Parent,
			Total:    ev.Directory.Total,
			Hidden:   ev.Directory.Hidden,
			Selected: ev.Directory.Selected,
		}
		for _, e := range ev.Directory.Entries {
			flag := "0"
			if e.Flagged {
				flag = "1"
			}
			snap.Entries = append(snap.Entries, fmt.Sprintf("%s;%s;%s;%s;%s;%s",
				e.Name, e.Type, e.Size, e.Perm, e.Mtime, flag))
		}
		hub.ShellDirectoryListing = snap
	case oscparse.EventCommandResult:
		mark := "✓" // check mark
		if ev.CommandResult.Status != 0 {
			mark = "✗" // cross mark
		}
		AppendLine(hub, fmt.Sprintf("%s %s — %s", mark, ev.CommandResult.Command, ev.CommandResult.Preview), 0)
	case oscparse.EventDangerousCommand:
		hub.ConfirmationRequired = ev.Dangerous.Command
	case oscparse.EventShellReady:
		hub.Prompt = ""
		hub.Suggestions = nil
	case oscparse.EventRequestCompletion:
		// Only returned to the caller via the returned []Event. No completion
		// lookup runs and hub.Suggestions is left as it is; shellio's reader
		// loop discards the returned events.
	case oscparse.EventContextRequest:
		payload, _ := json.Marshal(map[string]any{"hub_id": ev.Text})
		AppendLine(hub, "[CTX] "+string(payload), 0)
	}
}
