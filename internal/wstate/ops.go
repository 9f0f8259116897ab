package wstate

// PTYOpener lets SplitViewport ask for a PTY for the new hub without wstate
// importing shellio (which in turn depends on wstate for the hub it writes
// into) — avoids an import cycle. No type in this module implements it, and
// the dispatcher passes nil, so split_viewport opens no PTY for the new hub.
type PTYOpener interface {
	OpenFor(hubID HubID, sector *Sector) error
}

// activeHub returns the hub the active viewport currently points at.
func (w *World) activeHub() (*Hub, *Sector, *Viewport, error) {
	v, err := w.activeViewport()
	if err != nil {
		return nil, nil, nil, err
	}
	sector, err := w.activeSectorForViewport(v)
	if err != nil {
		return nil, nil, nil, err
	}
	if v.HubIndex < 0 || v.HubIndex >= len(sector.Hubs) {
		return nil, nil, nil, NewError(KindNotFound, "hub %d", v.HubIndex)
	}
	return &sector.Hubs[v.HubIndex], sector, v, nil
}

// SelectSector points the active viewport at sector i and enters CommandHub.
func (w *World) SelectSector(i int) error {
	v, err := w.activeViewport()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(w.Sectors) {
		return NewError(KindNotFound, "sector %d", i)
	}
	v.SectorIndex = i
	v.HubIndex = 0
	v.Level = CommandHub
	return nil
}

// ToggleMode changes the active hub's mode, clearing selection/prompt state
// per spec §4.C's leaving/entering rules.
func (w *World) ToggleMode(m Mode) error {
	hub, _, _, err := w.activeHub()
	if err != nil {
		return err
	}
	leaving := hub.Mode
	if leaving == ModeActivity || leaving == ModeDirectory {
		hub.SelectedItems = nil
		hub.Prompt = ""
	}
	if m != ModeSearch {
		hub.SearchQuery = ""
	}
	hub.Mode = m
	return nil
}

// CycleMode advances the active hub's mode through the fixed rotation.
func (w *World) CycleMode() error {
	hub, _, _, err := w.activeHub()
	if err != nil {
		return err
	}
	return w.ToggleMode(nextMode(hub.Mode))
}

// StageCommand writes text to the active hub's prompt without executing it.
func (w *World) StageCommand(text string) error {
	hub, _, _, err := w.activeHub()
	if err != nil {
		return err
	}
	hub.Prompt = text
	return nil
}

// FocusAppByID finds app id in the active hub, focuses it, and enters
// ApplicationFocus.
func (w *World) FocusAppByID(id AppID) error {
	hub, _, v, err := w.activeHub()
	if err != nil {
		return err
	}
	for i := range hub.Applications {
		if hub.Applications[i].ID == id {
			idx := i
			hub.ActiveAppIndex = idx
			v.ActiveAppIndex = &idx
			v.Level = ApplicationFocus
			return nil
		}
	}
	return NewError(KindNotFound, "app %s", id)
}

// KillApp removes an application from the active hub.
func (w *World) KillApp(id AppID) error {
	hub, _, _, err := w.activeHub()
	if err != nil {
		return err
	}
	for i := range hub.Applications {
		if hub.Applications[i].ID == id {
			hub.Applications = append(hub.Applications[:i], hub.Applications[i+1:]...)
			if hub.ActiveAppIndex >= len(hub.Applications) {
				hub.ActiveAppIndex = 0
			}
			return nil
		}
	}
	return NewError(KindNotFound, "app %s", id)
}

// ToggleBezel flips the active viewport's bezel-expanded flag.
func (w *World) ToggleBezel() error {
	v, err := w.activeViewport()
	if err != nil {
		return err
	}
	v.BezelExpanded = !v.BezelExpanded
	return nil
}

// SplitViewport clones the active viewport into a new one bound to a
// freshly-created sibling hub in the same sector. Splitting from
// GlobalOverview is undefined in the source spec; this implementation
// follows §9's recommendation and rejects it outright.
func (w *World) SplitViewport(opener PTYOpener) (ViewportID, HubID, error) {
	v, err := w.activeViewport()
	if err != nil {
		return ViewportID{}, HubID{}, err
	}
	if v.Level == GlobalOverview {
		return ViewportID{}, HubID{}, NewError(KindPrecondition, "cannot split from GlobalOverview")
	}
	sector, err := w.activeSectorForViewport(v)
	if err != nil {
		return ViewportID{}, HubID{}, err
	}

	newHub := Hub{
		ID:          NewID(),
		Mode:        ModeCommand,
		BufferLimit: defaultBufferLimit,
	}
	sector.Hubs = append(sector.Hubs, newHub)
	newHubIndex := len(sector.Hubs) - 1

	newViewport := Viewport{
		ID:          NewID(),
		SectorIndex: v.SectorIndex,
		HubIndex:    newHubIndex,
		Level:       v.Level,
	}
	w.Viewports = append(w.Viewports, newViewport)
	w.SplitView = len(w.Viewports) > 1

	if opener != nil {
		if err := opener.OpenFor(newHub.ID, sector); err != nil {
			return ViewportID{}, HubID{}, NewError(KindIO, "%v", err)
		}
	}
	return newViewport.ID, newHub.ID, nil
}

// TacticalReset returns every viewport to GlobalOverview and clears the
// escape counter.
func (w *World) TacticalReset() {
	for i := range w.Viewports {
		w.Viewports[i].Level = GlobalOverview
	}
	w.EscapeCount = 0
}

// EnableDeepInspection toggles deep inspection on or off for the active
// sector scope (spec §4.D's enable_deep_inspection(user)), gated by
// config.allow_deep_inspection. Returns the new state so the caller can tell
// a fresh enable from a disable. Turning it off while the active viewport
// sits at BufferInspector drops it back to DetailInspector, since that level
// is otherwise unreachable.
func (w *World) EnableDeepInspection() (bool, error) {
	if !w.AllowDeepInspection {
		return false, NewError(KindPrivilegeRequired, "deep inspection disabled by config")
	}
	v, err := w.activeViewport()
	if err != nil {
		return false, err
	}
	sector, err := w.activeSectorForViewport(v)
	if err != nil {
		return false, err
	}
	sector.DeepInspection = !sector.DeepInspection
	if !sector.DeepInspection && v.Level == BufferInspector {
		v.Level = DetailInspector
	}
	return sector.DeepInspection, nil
}

// SectorCreate appends a new sector with one default hub, bound to no
// viewport until select_sector targets it.
func (w *World) SectorCreate(name string, conn ConnectionType) Sector {
	s := Sector{
		ID:         NewID(),
		Name:       name,
		Connection: conn,
		Trust:      TrustStandard,
		Hubs: []Hub{{
			ID:          NewID(),
			Mode:        ModeCommand,
			BufferLimit: defaultBufferLimit,
		}},
	}
	w.Sectors = append(w.Sectors, s)
	return s
}

// SectorClose removes a sector by index and reparents any viewport that
// referenced it (spec §8 scenario 6).
func (w *World) SectorClose(i int) error {
	if i < 0 || i >= len(w.Sectors) {
		return NewError(KindNotFound, "sector %d", i)
	}
	w.Sectors = append(w.Sectors[:i], w.Sectors[i+1:]...)
	w.reparentViewportsAfterSectorRemoval(i)
	return nil
}

// reparentViewportsAfterSectorRemoval fixes up viewport sector indices after
// sector i has been spliced out of w.Sectors.
func (w *World) reparentViewportsAfterSectorRemoval(removed int) {
	kept := w.Viewports[:0]
	for _, v := range w.Viewports {
		switch {
		case v.SectorIndex == removed:
			if len(w.Sectors) == 0 {
				continue // nothing left to reparent to: drop the viewport
			}
			v.SectorIndex = 0
			v.HubIndex = 0
			v.Level = GlobalOverview
		case v.SectorIndex > removed:
			v.SectorIndex--
		}
		kept = append(kept, v)
	}
	w.Viewports = kept
	if w.ActiveViewportIndex >= len(w.Viewports) {
		w.ActiveViewportIndex = 0
	}
}
