// Package brainsrv is the Brain Dispatcher (spec §4.E): the single ingress
// for semantic events, IPC text frames, and shell events, routing each to
// the state model, security interceptor, or a PTY write, then replying with
// a short text frame or a JSON snapshot.
package brainsrv

import (
	"log"
	"sync"

	"silexa/brain/internal/notify"
	"silexa/brain/internal/security"
	"silexa/brain/internal/shellio"
	"silexa/brain/internal/wstate"
)

// Brain is the unique owner of the world-state Store and the PTY session
// map (spec §9: "the Brain [is] the unique owner of both the state and the
// PTY map"). The session map has its own mutex, separate from the world
// lock, since PTY writes must never happen while the world lock is held.
type Brain struct {
	Store    *wstate.Store
	Security *security.Manager
	Logger   *log.Logger
	Notifier *notify.Notifier
	Audit    security.AuditSink

	sessMu   sync.Mutex
	sessions map[wstate.HubID]*shellio.Session

	// confirmHub tracks which hub a pending confirmation's command must be
	// forwarded to once confirmed — the world-state's PendingConfirmation
	// record doesn't itself carry a hub id, since it's a presentation-facing
	// mirror of the security manager's session.
	confirmMu  sync.Mutex
	confirmHub map[wstate.SessionID]wstate.HubID

	stopPrune chan struct{}
}

// New wires a Brain around an already-constructed store and security
// manager. audit may be nil, the same JSONLAudit sink (or nil) passed to
// security.NewManager — the dispatcher reuses it for the deep-inspection
// events that fall outside the security manager's own confirmation
// lifecycle.
func New(store *wstate.Store, sec *security.Manager, logger *log.Logger, notifier *notify.Notifier, audit security.AuditSink) *Brain {
	b := &Brain{
		Store:      store,
		Security:   sec,
		Logger:     logger,
		Notifier:   notifier,
		Audit:      audit,
		sessions:   make(map[wstate.HubID]*shellio.Session),
		confirmHub: make(map[wstate.SessionID]wstate.HubID),
		stopPrune:  make(chan struct{}),
	}
	go sec.RunPruner(b.stopPrune, b.onConfirmationsExpired)
	return b
}

// logAudit forwards event to Audit if one is configured. Called only after
// the world lock has been released — Audit.Log does file I/O.
func (b *Brain) logAudit(event map[string]any) {
	if b.Audit == nil {
		return
	}
	b.Audit.Log(event)
}

// Shutdown stops the background pruner and every registered session.
func (b *Brain) Shutdown() {
	close(b.stopPrune)
	b.sessMu.Lock()
	defer b.sessMu.Unlock()
	for _, s := range b.sessions {
		_ = s.Close()
	}
}

// RegisterSession binds a live shellio.Session to a hub id so dispatcher
// verbs that write to a PTY (prompt_submit, confirmed dangerous commands)
// can find it.
func (b *Brain) RegisterSession(hubID wstate.HubID, sess *shellio.Session) {
	b.sessMu.Lock()
	defer b.sessMu.Unlock()
	b.sessions[hubID] = sess
}

func (b *Brain) sessionFor(hubID wstate.HubID) *shellio.Session {
	b.sessMu.Lock()
	defer b.sessMu.Unlock()
	return b.sessions[hubID]
}

func (b *Brain) rememberConfirmHub(id wstate.SessionID, hubID wstate.HubID) {
	b.confirmMu.Lock()
	defer b.confirmMu.Unlock()
	b.confirmHub[id] = hubID
}

func (b *Brain) takeConfirmHub(id wstate.SessionID) (wstate.HubID, bool) {
	b.confirmMu.Lock()
	defer b.confirmMu.Unlock()
	hubID, ok := b.confirmHub[id]
	delete(b.confirmHub, id)
	return hubID, ok
}

// onConfirmationsExpired clears the world-state's pending slot for any
// session the security manager's pruner just evicted. Runs from the
// pruner's own goroutine, so it must acquire the world lock itself via
// wstate.Do rather than assume it's already held.
func (b *Brain) onConfirmationsExpired(ids []wstate.SessionID) {
	for _, id := range ids {
		wstate.Do(b.Store, func(w *wstate.World) (struct{}, error) {
			if w.PendingConfirmation != nil && w.PendingConfirmation.SessionID == id {
				w.PendingConfirmation = nil
			}
			return struct{}{}, nil
		})
	}
}
