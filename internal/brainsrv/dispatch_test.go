package brainsrv

import (
	"testing"

	"silexa/brain/internal/security"
	"silexa/brain/internal/wstate"
)

func newTestBrain(t *testing.T) *Brain {
	t.Helper()
	store := wstate.NewStore()
	sec := security.NewManager(nil)
	b := New(store, sec, nil, nil, nil)
	t.Cleanup(b.Shutdown)

	wstate.Do(store, func(w *wstate.World) (struct{}, error) {
		w.SectorCreate("local", wstate.ConnLocal)
		w.Viewports = append(w.Viewports, wstate.Viewport{ID: wstate.NewID(), SectorIndex: 0, HubIndex: 0, Level: wstate.CommandHub})
		w.ActiveViewportIndex = 0
		return struct{}{}, nil
	})
	return b
}

func TestDispatchUnknownVerb(t *testing.T) {
	b := newTestBrain(t)
	if got := b.Dispatch("frobnicate:x"); got != "ERROR: Unknown command" {
		t.Fatalf("got %q", got)
	}
}

func TestDispatchMalformedFrame(t *testing.T) {
	b := newTestBrain(t)
	if got := b.Dispatch(""); got != "ERROR: Malformed request" {
		t.Fatalf("got %q", got)
	}
}

func TestDispatchZoomInPrivilegeRequired(t *testing.T) {
	b := newTestBrain(t)
	wstate.Do(b.Store, func(w *wstate.World) (struct{}, error) {
		w.Viewports[0].Level = wstate.DetailInspector
		return struct{}{}, nil
	})
	if got := b.Dispatch("zoom_in:"); got != "ERROR: Privilege required" {
		t.Fatalf("got %q", got)
	}
}

func TestDispatchSafePromptSubmitClearsStage(t *testing.T) {
	b := newTestBrain(t)
	if got := b.Dispatch("stage_command:echo hi"); got != "OK" {
		t.Fatalf("stage_command: %q", got)
	}
	if got := b.Dispatch("prompt_submit:echo hi"); got != "OK" {
		t.Fatalf("prompt_submit: %q", got)
	}
	prompt := wstate.View(b.Store, func(w *wstate.World) string {
		hub, _ := w.ActiveHub()
		return hub.Prompt
	})
	if prompt != "" {
		t.Fatalf("prompt = %q, want empty", prompt)
	}
}

func TestDispatchDangerousCommandPopulatesPendingConfirmation(t *testing.T) {
	b := newTestBrain(t)
	if got := b.Dispatch("prompt_submit:rm -rf /"); got != "OK" {
		t.Fatalf("prompt_submit: %q", got)
	}
	risk := wstate.View(b.Store, func(w *wstate.World) wstate.Risk {
		if w.PendingConfirmation == nil {
			return ""
		}
		return w.PendingConfirmation.Risk
	})
	if risk != wstate.RiskCritical {
		t.Fatalf("risk = %v, want Critical", risk)
	}
}

func TestDispatchSecondDangerousCommandRejectedWhilePending(t *testing.T) {
	b := newTestBrain(t)
	b.Dispatch("prompt_submit:rm -rf /")
	got := b.Dispatch("prompt_submit:mkfs.ext4 /dev/sda1")
	if got == "OK" {
		t.Fatal("expected second dangerous submit to be rejected while one is pending")
	}
}

func TestDispatchGetStateReturnsJSON(t *testing.T) {
	b := newTestBrain(t)
	got := b.Dispatch("get_state:")
	if len(got) == 0 || got[0] != '{' {
		t.Fatalf("expected JSON object, got %q", got)
	}
}

func TestDispatchSectorCloseRemovesSector(t *testing.T) {
	b := newTestBrain(t)
	wstate.Do(b.Store, func(w *wstate.World) (struct{}, error) {
		w.SectorCreate("second", wstate.ConnLocal)
		return struct{}{}, nil
	})
	if got := b.Dispatch("sector_close:1"); got != "OK" {
		t.Fatalf("sector_close: got %q", got)
	}
	n := wstate.View(b.Store, func(w *wstate.World) int { return len(w.Sectors) })
	if n != 1 {
		t.Fatalf("sectors = %d, want 1", n)
	}
}

func TestDispatchSectorCloseMalformedIndex(t *testing.T) {
	b := newTestBrain(t)
	got := b.Dispatch("sector_close:nope")
	if got == "OK" {
		t.Fatal("expected sector_close with a non-numeric payload to fail")
	}
}

// fakeAudit is an in-memory security.AuditSink for asserting on what the
// dispatcher logs.
type fakeAudit struct {
	events []map[string]any
}

func (f *fakeAudit) Log(event map[string]any) { f.events = append(f.events, event) }

func TestDispatchEnableDeepInspectionWiresAuditAndUnlocksLevel5(t *testing.T) {
	store := wstate.NewStore()
	sec := security.NewManager(nil)
	audit := &fakeAudit{}
	b := New(store, sec, nil, nil, audit)
	t.Cleanup(b.Shutdown)
	wstate.Do(store, func(w *wstate.World) (struct{}, error) {
		w.SectorCreate("local", wstate.ConnLocal)
		w.Viewports = append(w.Viewports, wstate.Viewport{ID: wstate.NewID(), SectorIndex: 0, HubIndex: 0, Level: wstate.DetailInspector})
		w.ActiveViewportIndex = 0
		w.AllowDeepInspection = true
		return struct{}{}, nil
	})

	if got := b.Dispatch("zoom_in:"); got != "ERROR: Privilege required" {
		t.Fatalf("zoom_in before enabling: got %q", got)
	}
	if got := b.Dispatch("enable-deep-inspection:"); got != "OK" {
		t.Fatalf("enable-deep-inspection: got %q", got)
	}
	if got := b.Dispatch("zoom_in:"); got != "OK" {
		t.Fatalf("zoom_in after enabling: got %q", got)
	}
	level := wstate.View(store, func(w *wstate.World) wstate.Level {
		lvl, _ := w.ActiveLevel()
		return lvl
	})
	if level != wstate.BufferInspector {
		t.Fatalf("level = %v, want BufferInspector", level)
	}

	var sawEnabled, sawAccessed bool
	for _, e := range audit.events {
		switch e["event"] {
		case wstate.AuditDeepInspectionEnabled:
			sawEnabled = true
		case wstate.AuditDeepInspectionAccessed:
			sawAccessed = true
		}
	}
	if !sawEnabled || !sawAccessed {
		t.Fatalf("audit log missing expected events: %+v", audit.events)
	}
}

func TestDispatchEnableDeepInspectionDeniedWithoutConfigFlag(t *testing.T) {
	b := newTestBrain(t)
	if got := b.Dispatch("enable-deep-inspection:"); got != "ERROR: Privilege required" {
		t.Fatalf("got %q, want privilege error when config.allow_deep_inspection is false", got)
	}
}

func TestDispatchCriticalPromptSubmitDoesNotPanicWithNoNotifier(t *testing.T) {
	b := newTestBrain(t) // Notifier is nil, matching an unconfigured --notify-url.
	if got := b.Dispatch("prompt_submit:rm -rf /"); got != "OK" {
		t.Fatalf("prompt_submit: got %q", got)
	}
}

func TestSelfTestPasses(t *testing.T) {
	store := wstate.NewStore()
	sec := security.NewManager(nil)
	b := New(store, sec, nil, nil, nil)
	defer b.Shutdown()
	if err := SelfTest(b); err != nil {
		t.Fatalf("self-test: %v", err)
	}
}
