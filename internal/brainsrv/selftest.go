package brainsrv

import (
	"fmt"

	"silexa/brain/internal/wstate"
)

// SelfTest runs the built-in choreography (a safe stage/submit round trip,
// dangerous-command interception, and the deep-inspection gate) against a
// freshly seeded world (one local sector, one hub, one viewport) and returns
// nil only if every expectation held. Intended for the
// --self-test CLI flag: exit 0 on nil, exit 2 otherwise.
func SelfTest(b *Brain) error {
	_, err := wstate.Do(b.Store, func(w *wstate.World) (struct{}, error) {
		w.SectorCreate("local", wstate.ConnLocal)
		w.Viewports = append(w.Viewports, wstate.Viewport{
			ID: wstate.NewID(), SectorIndex: 0, HubIndex: 0, Level: wstate.CommandHub,
		})
		w.ActiveViewportIndex = 0
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("seed world: %w", err)
	}

	// Scenario 1: stage_command followed by a safe prompt_submit leaves
	// staged state cleared. No session is registered here, so the PTY write
	// itself is not checked.
	if reply := b.Dispatch("stage_command:echo hi"); reply != "OK" {
		return fmt.Errorf("stage_command: got %q", reply)
	}
	if reply := b.Dispatch("prompt_submit:echo hi"); reply != "OK" {
		return fmt.Errorf("prompt_submit safe: got %q", reply)
	}
	promptCleared := wstate.View(b.Store, func(w *wstate.World) bool {
		hub, _ := w.ActiveHub()
		return hub != nil && hub.Prompt == ""
	})
	if !promptCleared {
		return fmt.Errorf("prompt not cleared after safe submit")
	}

	// Scenario 2: dangerous interception populates the pending-confirmation
	// slot without touching the PTY, and a full confirmation sequence
	// clears it again.
	if reply := b.Dispatch("prompt_submit:rm -rf /"); reply != "OK" {
		return fmt.Errorf("prompt_submit dangerous: got %q", reply)
	}
	var id string
	var risk wstate.Risk
	ok := wstate.View(b.Store, func(w *wstate.World) bool {
		if w.PendingConfirmation == nil {
			return false
		}
		id = w.PendingConfirmation.SessionID.String()
		risk = w.PendingConfirmation.Risk
		return true
	})
	if !ok {
		return fmt.Errorf("expected pending confirmation after dangerous submit")
	}
	if risk != wstate.RiskCritical {
		return fmt.Errorf("risk = %v, want Critical", risk)
	}
	for _, step := range []string{"1", "2", "3"} {
		reply := b.Dispatch("update_confirmation_progress:" + id + ":" + step)
		if reply != "OK" {
			return fmt.Errorf("confirmation step %s: got %q", step, reply)
		}
	}
	cleared := wstate.View(b.Store, func(w *wstate.World) bool {
		return w.PendingConfirmation == nil
	})
	if !cleared {
		return fmt.Errorf("pending confirmation not cleared after full sequence")
	}

	// Scenario 3 (spec §8 scenario 4): with config.allow_deep_inspection
	// false, the fourth zoom_in from GlobalOverview is denied; enabling deep
	// inspection for the active sector lets one more zoom_in reach
	// BufferInspector.
	if reply := b.Dispatch("tactical_reset:"); reply != "OK" {
		return fmt.Errorf("tactical_reset: got %q", reply)
	}
	for i := 0; i < 3; i++ {
		if reply := b.Dispatch("zoom_in:"); reply != "OK" {
			return fmt.Errorf("zoom_in %d: got %q", i, reply)
		}
	}
	atDetail := wstate.View(b.Store, func(w *wstate.World) bool {
		lvl, _ := w.ActiveLevel()
		return lvl == wstate.DetailInspector
	})
	if !atDetail {
		return fmt.Errorf("expected DetailInspector after 3 zooms")
	}
	if reply := b.Dispatch("zoom_in:"); reply != "ERROR: Privilege required" {
		return fmt.Errorf("zoom_in without deep inspection: got %q", reply)
	}
	if _, err := wstate.Do(b.Store, func(w *wstate.World) (struct{}, error) {
		w.AllowDeepInspection = true
		return struct{}{}, nil
	}); err != nil {
		return fmt.Errorf("enable config flag: %w", err)
	}
	if reply := b.Dispatch("enable-deep-inspection:"); reply != "OK" {
		return fmt.Errorf("enable-deep-inspection: got %q", reply)
	}
	if reply := b.Dispatch("zoom_in:"); reply != "OK" {
		return fmt.Errorf("zoom_in after enable-deep-inspection: got %q", reply)
	}
	atBuffer := wstate.View(b.Store, func(w *wstate.World) bool {
		lvl, _ := w.ActiveLevel()
		return lvl == wstate.BufferInspector
	})
	if !atBuffer {
		return fmt.Errorf("expected BufferInspector after enable-deep-inspection")
	}

	// Unknown verb and malformed frame must never panic and must return
	// typed errors.
	if reply := b.Dispatch("not_a_real_verb:x"); reply != "ERROR: Unknown command" {
		return fmt.Errorf("unknown verb: got %q", reply)
	}
	if reply := b.Dispatch(""); reply != "ERROR: Malformed request" {
		return fmt.Errorf("malformed frame: got %q", reply)
	}

	return nil
}
