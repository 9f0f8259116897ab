package brainsrv

import (
	"encoding/json"

	"github.com/mattn/go-runewidth"

	"silexa/brain/internal/wstate"
)

// lineView mirrors wstate.TerminalLine plus a precomputed display width, so
// a presentation layer never has to link a wide-rune-aware library itself
// just to lay out a terminal line.
type lineView struct {
	Text        string `json:"text"`
	Priority    int    `json:"priority"`
	DisplayCols int    `json:"display_cols"`
}

type snapshotHub struct {
	wstate.Hub
	TerminalOutput []lineView `json:"terminal_output"`
}

type snapshotSector struct {
	wstate.Sector
	Hubs []snapshotHub `json:"hubs"`
}

type snapshotView struct {
	CurrentLevel        wstate.Level          `json:"current_level"`
	Sectors             []snapshotSector      `json:"sectors"`
	Viewports           []wstate.Viewport     `json:"viewports"`
	ActiveViewportIndex int                   `json:"active_viewport_index"`
	Settings            map[string]string     `json:"settings"`
	PendingConfirmation *wstate.PendingConfirmation `json:"pending_confirmation,omitempty"`
	SystemLog           []string              `json:"system_log"`
	PerformanceAlert    bool                  `json:"performance_alert"`
	FPSEstimate         float64               `json:"fps_estimate"`
	SplitView           bool                  `json:"split_view"`
}

// Snapshot renders w as the JSON payload the get_state verb returns (spec
// §4.E, §6: "stable field names matching the §3 data model"). Every
// terminal line is annotated with its rendered column width via
// mattn/go-runewidth, since the Brain — not the external HTML/SVG
// renderers — is where every library-bearing concern in this spec lives.
func Snapshot(w *wstate.World) (string, error) {
	view := snapshotView{
		CurrentLevel:        w.CurrentLevel,
		Viewports:           w.Viewports,
		ActiveViewportIndex: w.ActiveViewportIndex,
		Settings:            w.Settings,
		PendingConfirmation: w.PendingConfirmation,
		SystemLog:           w.SystemLog,
		PerformanceAlert:    w.PerformanceAlert,
		FPSEstimate:         w.FPSEstimate,
		SplitView:           w.SplitView,
	}
	for _, sector := range w.Sectors {
		sv := snapshotSector{Sector: sector}
		for _, hub := range sector.Hubs {
			hv := snapshotHub{Hub: hub}
			hv.TerminalOutput = make([]lineView, len(hub.TerminalOutput))
			for i, line := range hub.TerminalOutput {
				hv.TerminalOutput[i] = lineView{
					Text:        line.Text,
					Priority:    line.Priority,
					DisplayCols: runewidth.StringWidth(line.Text),
				}
			}
			sv.Hubs = append(sv.Hubs, hv)
		}
		view.Sectors = append(view.Sectors, sv)
	}

	data, err := json.Marshal(view)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
