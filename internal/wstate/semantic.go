package wstate

// SemanticEvent is a named keyboard/gesture event dispatched from the
// Compositor Shell layer, decoupled from any concrete key binding (spec
// §4.C: "operations are addressed by semantic event name, never by key
// code").
type SemanticEvent string

const (
	EvZoomIn         SemanticEvent = "zoom_in"
	EvZoomOut        SemanticEvent = "zoom_out"
	EvCycleMode      SemanticEvent = "cycle_mode"
	EvToggleBezel    SemanticEvent = "toggle_bezel"
	EvSplitViewport  SemanticEvent = "split_viewport"
	EvTacticalReset  SemanticEvent = "tactical_reset"
	EvEscape         SemanticEvent = "escape"
)

// escapeResetThreshold is how many consecutive bare Escape events trigger a
// tactical reset (spec §4.C, §8 scenario 5).
const escapeResetThreshold = 3

// Dispatch routes a semantic event to the corresponding World operation.
// Escape is special: it only performs TacticalReset after escapeResetThreshold
// consecutive Escape events with no other event in between: any other event
// (including a repeated but non-Escape one) clears the run.
func (w *World) Dispatch(ev SemanticEvent) error {
	if ev != EvEscape {
		w.EscapeCount = 0
	}
	switch ev {
	case EvZoomIn:
		return w.ZoomIn()
	case EvZoomOut:
		return w.ZoomOut()
	case EvCycleMode:
		return w.CycleMode()
	case EvToggleBezel:
		return w.ToggleBezel()
	case EvSplitViewport:
		_, _, err := w.SplitViewport(nil)
		return err
	case EvTacticalReset:
		w.TacticalReset()
		return nil
	case EvEscape:
		w.EscapeCount++
		if w.EscapeCount >= escapeResetThreshold {
			w.TacticalReset()
		}
		return nil
	default:
		return NewError(KindUnknownVerb, "semantic event %q", ev)
	}
}
