package wstate

// ActiveHub exposes activeHub for callers outside this package (the
// dispatcher, session wiring) that need to resolve "the active hub" without
// duplicating viewport/sector traversal logic.
func (w *World) ActiveHub() (*Hub, error) {
	hub, _, _, err := w.activeHub()
	return hub, err
}

// HubByID finds a hub anywhere in the world by id — used by shellio.Session
// to re-resolve its target hub on every PTY read, since a hub's slice
// position can move (sector close reparenting compacts slices).
func (w *World) HubByID(id HubID) *Hub {
	for si := range w.Sectors {
		for hi := range w.Sectors[si].Hubs {
			if w.Sectors[si].Hubs[hi].ID == id {
				return &w.Sectors[si].Hubs[hi]
			}
		}
	}
	return nil
}

// SectorForHub finds the sector owning hub id, the same way HubByID does, so
// callers can check a Frozen/Disconnected flag without duplicating the
// traversal.
func (w *World) SectorForHub(id HubID) *Sector {
	for si := range w.Sectors {
		for hi := range w.Sectors[si].Hubs {
			if w.Sectors[si].Hubs[hi].ID == id {
				return &w.Sectors[si]
			}
		}
	}
	return nil
}

// SectorIndexByID returns the current index of sector id, or -1 if it has
// since been closed. Indices shift on SectorClose, so anything that holds a
// sector id across a wstate.Do boundary (the disconnect sweeper) must
// re-resolve it this way rather than caching an index.
func (w *World) SectorIndexByID(id SectorID) int {
	for i := range w.Sectors {
		if w.Sectors[i].ID == id {
			return i
		}
	}
	return -1
}
