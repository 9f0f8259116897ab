package wstate

// activeViewport returns the viewport at ActiveViewportIndex.
func (w *World) activeViewport() (*Viewport, error) {
	if w.ActiveViewportIndex < 0 || w.ActiveViewportIndex >= len(w.Viewports) {
		return nil, NewError(KindPrecondition, "no active viewport")
	}
	return &w.Viewports[w.ActiveViewportIndex], nil
}

func (w *World) activeSectorForViewport(v *Viewport) (*Sector, error) {
	if v.SectorIndex < 0 || v.SectorIndex >= len(w.Sectors) {
		return nil, NewError(KindNotFound, "sector %d", v.SectorIndex)
	}
	return &w.Sectors[v.SectorIndex], nil
}

// deepInspectionAllowed checks the scope-specific gate for Level 5 access.
func (w *World) deepInspectionAllowed(v *Viewport) bool {
	if !w.AllowDeepInspection {
		return false
	}
	sector, err := w.activeSectorForViewport(v)
	if err != nil {
		return false
	}
	return sector.DeepInspection
}

// CheckDeepInspectionAccess implements spec §4.D's
// check_deep_inspection_access(user, address): false whenever the toggle is
// off for the active sector scope. This system has no per-user account
// model, so user and address exist for the caller's audit record, not as
// lookup keys — the active viewport already pins the sector being checked.
func (w *World) CheckDeepInspectionAccess(user, address string) bool {
	v, err := w.activeViewport()
	if err != nil {
		return false
	}
	return w.deepInspectionAllowed(v)
}

// ActiveLevel returns the active viewport's current hierarchy level.
func (w *World) ActiveLevel() (Level, error) {
	v, err := w.activeViewport()
	if err != nil {
		return 0, err
	}
	return v.Level, nil
}

// ActiveSectorAddress returns the active sector's host address, falling back
// to its name for local sectors that have none — used purely to label audit
// records, never to route anything.
func (w *World) ActiveSectorAddress() string {
	v, err := w.activeViewport()
	if err != nil {
		return ""
	}
	sector, err := w.activeSectorForViewport(v)
	if err != nil {
		return ""
	}
	if sector.HostAddress != "" {
		return sector.HostAddress
	}
	return sector.Name
}

// ZoomIn advances the active viewport's level by one step. The final step
// (DetailInspector -> BufferInspector) is gated on deep inspection being
// enabled for the active sector's scope.
func (w *World) ZoomIn() error {
	v, err := w.activeViewport()
	if err != nil {
		return err
	}
	if v.Level == BufferInspector {
		return nil // no-op at the top
	}
	if v.Level == DetailInspector {
		if !w.deepInspectionAllowed(v) {
			return NewError(KindPrivilegeRequired, "deep inspection not enabled")
		}
	}
	v.Level++
	return nil
}

// ZoomOut retreats the active viewport's level by one step; a no-op at the
// bottom.
func (w *World) ZoomOut() error {
	v, err := w.activeViewport()
	if err != nil {
		return err
	}
	if v.Level == GlobalOverview {
		return nil
	}
	v.Level--
	return nil
}

// SetLevel forces a jump to an arbitrary level, subject to the same
// deep-inspection gate as ZoomIn for Level 5.
func (w *World) SetLevel(l Level) error {
	v, err := w.activeViewport()
	if err != nil {
		return err
	}
	if l == BufferInspector && !w.deepInspectionAllowed(v) {
		return NewError(KindPrivilegeRequired, "deep inspection not enabled")
	}
	v.Level = l
	return nil
}
