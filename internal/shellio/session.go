package shellio

import (
	"errors"
	"io"
	"log"
	"time"

	"silexa/brain/internal/oscparse"
	"silexa/brain/internal/wstate"
)

// ErrSessionTimeout is returned by AwaitExit when the backend outlives the
// given deadline.
var ErrSessionTimeout = errors.New("shellio: session did not exit before timeout")

// Session owns one Backend's reader loop, feeding every read through an
// oscparse.Parser and applying the result to a hub under the Store's lock.
// Grounded on tools/codex-interactive-driver's runner.readLoop: a single
// goroutine blocks on Backend.Read and never touches the world-state lock
// while doing so, matching the "no blocking I/O under the lock" rule (spec
// §5). ID labels this Session in its log lines.
type Session struct {
	ID      wstate.SessionID
	HubID   wstate.HubID
	backend Backend
	parser  *oscparse.Parser
	store   *wstate.Store
	logger  *log.Logger

	doneCh chan struct{}
}

// NewSession starts the reader loop immediately. hubIndexer resolves the
// current hub for this session at apply-time, since a hub's position in the
// World can shift (sector close reparenting, etc).
func NewSession(backend Backend, hubID wstate.HubID, store *wstate.Store, logger *log.Logger, hubIndexer func(*wstate.World, wstate.HubID) *wstate.Hub) *Session {
	s := &Session{
		ID:      wstate.NewID(),
		HubID:   hubID,
		backend: backend,
		parser:  oscparse.New(),
		store:   store,
		logger:  logger,
		doneCh:  make(chan struct{}),
	}
	go s.readLoop(hubIndexer)
	return s
}

func (s *Session) readLoop(hubIndexer func(*wstate.World, wstate.HubID) *wstate.Hub) {
	defer close(s.doneCh)
	buf := make([]byte, 4096)
	for {
		n, err := s.backend.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			_, applyErr := wstate.Do(s.store, func(w *wstate.World) (struct{}, error) {
				hub := hubIndexer(w, s.HubID)
				if hub == nil {
					return struct{}{}, nil
				}
				if sector := w.SectorForHub(s.HubID); sector != nil && sector.Frozen {
					// Frozen sectors drop output after parsing (spec §4.B):
					// the parser must keep consuming so its carry/priority
					// state stays correct for when un-freezing happens, but
					// the hub itself must not mutate.
					s.parser.ParseTagged(chunk)
					return struct{}{}, nil
				}
				wstate.ProcessShellOutput(hub, s.parser, chunk)
				return struct{}{}, nil
			})
			if applyErr != nil && s.logger != nil {
				s.logger.Printf("session %s: apply output: %v", s.ID, applyErr)
			}
		}
		if err != nil {
			if err != io.EOF && s.logger != nil {
				s.logger.Printf("session %s: read: %v", s.ID, err)
			}
			s.markDisconnected(hubIndexer)
			return
		}
	}
}

// markDisconnected flags the owning sector as disconnected and schedules its
// removal after DisconnectGraceDelay, reparenting any viewport that pointed
// at it (spec §4.B, §8 scenario 6). A no-op if the hub or its sector has
// already been torn down.
func (s *Session) markDisconnected(hubIndexer func(*wstate.World, wstate.HubID) *wstate.Hub) {
	sectorID, err := wstate.Do(s.store, func(w *wstate.World) (wstate.SectorID, error) {
		hub := hubIndexer(w, s.HubID)
		if hub == nil {
			return wstate.SectorID{}, nil
		}
		sector := w.SectorForHub(s.HubID)
		if sector == nil {
			return wstate.SectorID{}, nil
		}
		sector.Disconnected = true
		sector.DisconnectedAt = time.Now()
		return sector.ID, nil
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("session %s: mark disconnected: %v", s.ID, err)
		}
		return
	}
	if sectorID == (wstate.SectorID{}) {
		return
	}
	time.AfterFunc(wstate.DisconnectGraceDelay, func() { s.sweepDisconnected(sectorID) })
}

// sweepDisconnected removes sectorID if it is still marked Disconnected
// DisconnectGraceDelay after markDisconnected ran. A reconnect in the
// meantime (which would clear Disconnected) leaves the sector alone.
func (s *Session) sweepDisconnected(sectorID wstate.SectorID) {
	_, err := wstate.Do(s.store, func(w *wstate.World) (struct{}, error) {
		i := w.SectorIndexByID(sectorID)
		if i < 0 {
			return struct{}{}, nil
		}
		if !w.Sectors[i].Disconnected {
			return struct{}{}, nil
		}
		return struct{}{}, w.SectorClose(i)
	})
	if err != nil && s.logger != nil {
		s.logger.Printf("session %s: sweep disconnected sector %s: %v", s.ID, sectorID, err)
	}
}

// Write sends keystrokes to the backend. Never called while the world-state
// lock is held.
func (s *Session) Write(p []byte) (int, error) { return s.backend.Write(p) }

func (s *Session) Resize(rows, cols uint16) error { return s.backend.Resize(rows, cols) }

// Done reports when the backend's reader loop has exited (the shell
// process died, the connection dropped, or Close was called).
func (s *Session) Done() <-chan struct{} { return s.doneCh }

func (s *Session) Close() error { return s.backend.Close() }

// AwaitExit blocks until the backend process exits or timeout elapses,
// returning the process's own Wait error (or a timeout sentinel).
func (s *Session) AwaitExit(timeout time.Duration) error {
	select {
	case <-s.doneCh:
		return s.backend.Wait()
	case <-time.After(timeout):
		return ErrSessionTimeout
	}
}
