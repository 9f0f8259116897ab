package wstate

import (
	"testing"

	"silexa/brain/internal/oscparse"
)

func newTestWorld() *World {
	w := NewWorld()
	w.SectorCreate("local", ConnLocal)
	w.Viewports = append(w.Viewports, Viewport{ID: NewID(), SectorIndex: 0, HubIndex: 0, Level: GlobalOverview})
	w.ActiveViewportIndex = 0
	return w
}

func TestZoomInOutRoundTrip(t *testing.T) {
	w := newTestWorld()
	for i := 0; i < 2; i++ {
		if err := w.ZoomIn(); err != nil {
			t.Fatalf("zoom in: %v", err)
		}
	}
	if w.Viewports[0].Level != ApplicationFocus {
		t.Fatalf("level = %v, want ApplicationFocus", w.Viewports[0].Level)
	}
	for i := 0; i < 2; i++ {
		if err := w.ZoomOut(); err != nil {
			t.Fatalf("zoom out: %v", err)
		}
	}
	if w.Viewports[0].Level != GlobalOverview {
		t.Fatalf("level = %v, want GlobalOverview", w.Viewports[0].Level)
	}
}

func TestZoomOutNoOpAtBottom(t *testing.T) {
	w := newTestWorld()
	if err := w.ZoomOut(); err != nil {
		t.Fatalf("zoom out at bottom: %v", err)
	}
	if w.Viewports[0].Level != GlobalOverview {
		t.Fatalf("level changed from no-op zoom out")
	}
}

func TestZoomInNoOpAtTopWithPrivilege(t *testing.T) {
	w := newTestWorld()
	w.AllowDeepInspection = true
	w.Sectors[0].DeepInspection = true
	w.Viewports[0].Level = BufferInspector
	if err := w.ZoomIn(); err != nil {
		t.Fatalf("zoom in at top: %v", err)
	}
	if w.Viewports[0].Level != BufferInspector {
		t.Fatalf("level changed from no-op zoom in at top")
	}
}

func TestDeepInspectionGateDenied(t *testing.T) {
	w := newTestWorld()
	w.Viewports[0].Level = DetailInspector
	err := w.ZoomIn()
	if err == nil {
		t.Fatal("expected privilege error, got nil")
	}
	werr, ok := err.(*Error)
	if !ok || werr.Kind != KindPrivilegeRequired {
		t.Fatalf("expected KindPrivilegeRequired, got %v", err)
	}
	if w.Viewports[0].Level != DetailInspector {
		t.Fatalf("level must not change on denied zoom")
	}
}

func TestDeepInspectionGateAllowed(t *testing.T) {
	w := newTestWorld()
	w.AllowDeepInspection = true
	w.Sectors[0].DeepInspection = true
	w.Viewports[0].Level = DetailInspector
	if err := w.ZoomIn(); err != nil {
		t.Fatalf("zoom in with privilege: %v", err)
	}
	if w.Viewports[0].Level != BufferInspector {
		t.Fatalf("level = %v, want BufferInspector", w.Viewports[0].Level)
	}
}

func TestEnableDeepInspectionRequiresConfigFlag(t *testing.T) {
	w := newTestWorld()
	if _, err := w.EnableDeepInspection(); err == nil {
		t.Fatal("expected privilege error with config.allow_deep_inspection false")
	}
}

func TestEnableDeepInspectionTogglesActiveSectorAndUnlocksLevel5(t *testing.T) {
	w := newTestWorld()
	w.AllowDeepInspection = true
	w.Viewports[0].Level = DetailInspector

	enabled, err := w.EnableDeepInspection()
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !enabled {
		t.Fatal("expected first toggle to enable")
	}
	if !w.Sectors[0].DeepInspection {
		t.Fatal("expected active sector's DeepInspection set")
	}
	if err := w.ZoomIn(); err != nil {
		t.Fatalf("zoom in after enable: %v", err)
	}
	if w.Viewports[0].Level != BufferInspector {
		t.Fatalf("level = %v, want BufferInspector", w.Viewports[0].Level)
	}

	enabled, err = w.EnableDeepInspection()
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if enabled {
		t.Fatal("expected second toggle to disable")
	}
	if w.Viewports[0].Level != DetailInspector {
		t.Fatalf("level = %v, want dropped back to DetailInspector", w.Viewports[0].Level)
	}
}

func TestCheckDeepInspectionAccessFollowsToggle(t *testing.T) {
	w := newTestWorld()
	if w.CheckDeepInspectionAccess("u", "a") {
		t.Fatal("expected access denied before any toggle")
	}
	w.AllowDeepInspection = true
	w.Sectors[0].DeepInspection = true
	if !w.CheckDeepInspectionAccess("u", "a") {
		t.Fatal("expected access allowed once config and sector toggle agree")
	}
}

func TestSplitViewportRejectedAtGlobalOverview(t *testing.T) {
	w := newTestWorld()
	_, _, err := w.SplitViewport(nil)
	if err == nil {
		t.Fatal("expected precondition error")
	}
	werr, ok := err.(*Error)
	if !ok || werr.Kind != KindPrecondition {
		t.Fatalf("expected KindPrecondition, got %v", err)
	}
	if len(w.Viewports) != 1 {
		t.Fatalf("no viewport should have been created")
	}
}

func TestSplitViewportCreatesSiblingHub(t *testing.T) {
	w := newTestWorld()
	w.Viewports[0].Level = CommandHub
	vid, hid, err := w.SplitViewport(nil)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if vid == (ViewportID{}) || hid == (HubID{}) {
		t.Fatal("expected non-zero ids")
	}
	if len(w.Viewports) != 2 {
		t.Fatalf("viewports = %d, want 2", len(w.Viewports))
	}
	if len(w.Sectors[0].Hubs) != 2 {
		t.Fatalf("hubs = %d, want 2", len(w.Sectors[0].Hubs))
	}
	if !w.SplitView {
		t.Fatal("SplitView flag should be set")
	}
}

func TestToggleBezelIdempotentPair(t *testing.T) {
	w := newTestWorld()
	start := w.Viewports[0].BezelExpanded
	if err := w.ToggleBezel(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := w.ToggleBezel(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if w.Viewports[0].BezelExpanded != start {
		t.Fatalf("two toggles should return to the original state")
	}
}

func TestToggleModeClearsSelectionLeavingActivity(t *testing.T) {
	w := newTestWorld()
	hub := &w.Sectors[0].Hubs[0]
	hub.Mode = ModeActivity
	hub.SelectedItems = map[string]bool{"a": true}
	hub.Prompt = "staged"
	if err := w.ToggleMode(ModeCommand); err != nil {
		t.Fatalf("toggle mode: %v", err)
	}
	if hub.SelectedItems != nil {
		t.Fatal("expected selected items cleared")
	}
	if hub.Prompt != "" {
		t.Fatal("expected prompt cleared")
	}
}

func TestCycleModeFullRotation(t *testing.T) {
	w := newTestWorld()
	hub := &w.Sectors[0].Hubs[0]
	seen := []Mode{hub.Mode}
	for i := 0; i < len(modeCycleOrder); i++ {
		if err := w.CycleMode(); err != nil {
			t.Fatalf("cycle: %v", err)
		}
		seen = append(seen, hub.Mode)
	}
	if seen[0] != seen[len(seen)-1] {
		t.Fatalf("full rotation should return to starting mode: %v", seen)
	}
}

func TestTacticalResetClearsEscapeAndLevels(t *testing.T) {
	w := newTestWorld()
	w.Viewports[0].Level = ApplicationFocus
	w.EscapeCount = 2
	w.TacticalReset()
	if w.Viewports[0].Level != GlobalOverview {
		t.Fatal("expected level reset to GlobalOverview")
	}
	if w.EscapeCount != 0 {
		t.Fatal("expected escape count reset")
	}
}

func TestEscapeThreeConsecutiveTriggersReset(t *testing.T) {
	w := newTestWorld()
	w.Viewports[0].Level = DetailInspector
	for i := 0; i < 2; i++ {
		if err := w.Dispatch(EvEscape); err != nil {
			t.Fatalf("escape: %v", err)
		}
		if w.Viewports[0].Level != DetailInspector {
			t.Fatalf("premature reset after %d escapes", i+1)
		}
	}
	if err := w.Dispatch(EvEscape); err != nil {
		t.Fatalf("escape: %v", err)
	}
	if w.Viewports[0].Level != GlobalOverview {
		t.Fatal("expected reset after third consecutive escape")
	}
}

func TestEscapeRunBrokenByOtherEvent(t *testing.T) {
	w := newTestWorld()
	w.Viewports[0].Level = DetailInspector
	w.Dispatch(EvEscape)
	w.Dispatch(EvEscape)
	w.Dispatch(EvCycleMode) // breaks the run
	w.Dispatch(EvEscape)
	if w.Viewports[0].Level != DetailInspector {
		t.Fatal("reset should not trigger until 3 consecutive escapes again")
	}
}

func TestLineBufferStrictEviction(t *testing.T) {
	hub := &Hub{BufferLimit: 3}
	for i := 0; i < 5; i++ {
		AppendLine(hub, "line", 0)
	}
	if len(hub.TerminalOutput) != 3 {
		t.Fatalf("len = %d, want 3", len(hub.TerminalOutput))
	}
}

func TestLineBufferOrderPreserved(t *testing.T) {
	hub := &Hub{BufferLimit: 2}
	AppendLine(hub, "a", 0)
	AppendLine(hub, "b", 0)
	AppendLine(hub, "c", 0)
	if hub.TerminalOutput[0].Text != "b" || hub.TerminalOutput[1].Text != "c" {
		t.Fatalf("unexpected order: %+v", hub.TerminalOutput)
	}
}

func TestProcessShellOutputAppliesCwdAndDangerous(t *testing.T) {
	hub := &Hub{BufferLimit: 10}
	p := oscparse.New()
	chunk := []byte("\x1b]9003;/home/user\x07\x1b]9005;Critical;rm -rf /\x07")
	ProcessShellOutput(hub, p, chunk)
	if hub.CurrentDirectory != "/home/user" {
		t.Fatalf("current directory = %q", hub.CurrentDirectory)
	}
	if hub.ConfirmationRequired != "rm -rf /" {
		t.Fatalf("confirmation required = %q", hub.ConfirmationRequired)
	}
}

func TestSectorCloseReparentsViewports(t *testing.T) {
	w := newTestWorld()
	w.SectorCreate("second", ConnLocal)
	w.Viewports = append(w.Viewports, Viewport{ID: NewID(), SectorIndex: 1, HubIndex: 0, Level: CommandHub})
	if err := w.SectorClose(0); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(w.Sectors) != 1 {
		t.Fatalf("sectors = %d, want 1", len(w.Sectors))
	}
	if w.Viewports[0].SectorIndex != 0 || w.Viewports[0].Level != GlobalOverview {
		t.Fatalf("viewport 0 should have been reparented to GlobalOverview, got %+v", w.Viewports[0])
	}
	if w.Viewports[1].SectorIndex != 0 {
		t.Fatalf("viewport 1 should have shifted down to sector 0, got %+v", w.Viewports[1])
	}
}
