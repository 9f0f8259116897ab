package security

import (
	"fmt"
	"sync"
	"time"

	"silexa/brain/internal/wstate"
)

// AuditSink receives one structured event per confirmation lifecycle
// transition. *JSONLAudit satisfies this.
type AuditSink interface {
	Log(event map[string]any)
}

// Manager owns every in-flight confirmation session and the pattern table
// used to classify submitted commands (spec §3, §4.D). The deep-inspection
// flags live in wstate (World.AllowDeepInspection, Sector.DeepInspection),
// not here.
type Manager struct {
	mu       sync.Mutex
	patterns []Pattern
	sessions map[wstate.SessionID]*confirmationSession
	audit    AuditSink
}

// NewManager builds a Manager over the default pattern table.
func NewManager(audit AuditSink) *Manager {
	return &Manager{
		patterns: DefaultPatterns(),
		sessions: make(map[wstate.SessionID]*confirmationSession),
		audit:    audit,
	}
}

// Classify checks text against the pattern table, returning the matching
// pattern (or nil if the text is safe to forward directly).
func (m *Manager) Classify(text string) *Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Match(m.patterns, text)
}

// Open creates a new confirmation session for a matched pattern and returns
// the world-state-facing PendingConfirmation record (carrying the new
// session id) the caller should install in World.PendingConfirmation. Only
// one session may be open
// globally at a time per spec invariant 4 — the caller (the dispatcher,
// under the world-state lock) is responsible for enforcing that by checking
// World.PendingConfirmation before calling Open.
func (m *Manager) Open(hubID wstate.HubID, command string, p *Pattern) (*wstate.PendingConfirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := wstate.NewID()
	method := p.Method(id.String())
	sess := &confirmationSession{
		id:        id,
		hubID:     hubID,
		command:   command,
		risk:      p.Risk,
		method:    method,
		startedAt: time.Now(),
	}
	m.sessions[id] = sess
	m.logEvent("opened", sess)

	return &wstate.PendingConfirmation{
		SessionID: id,
		Command:   command,
		Risk:      p.Risk,
		Method:    method,
		Progress:  0,
		StartedAt: sess.startedAt,
	}, nil
}

// UpdateProgress drives a Slider (value in [0,1]) or MultiButton (integer
// step k) session. Returns (completed, error). A completed session must be
// forwarded to the PTY by the caller and then removed via Confirm.
func (m *Manager) UpdateProgress(id wstate.SessionID, value float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return false, wstate.NewError(wstate.KindNotFound, "confirmation session %s", id)
	}

	switch method := sess.method.(type) {
	case wstate.SliderMethod:
		if value >= 1.0 {
			sess.progress = 1.0
			return true, nil
		}
		sess.progress = value
		return false, nil
	case wstate.MultiButtonMethod:
		k := int(value)
		n := len(method.Sequence)
		if k != sess.multiStep+1 {
			sess.multiStep = 0
			sess.progress = 0
			return false, nil
		}
		sess.multiStep = k
		sess.progress = float64(k) / float64(n)
		if k >= n {
			return true, nil
		}
		return false, nil
	default:
		return false, wstate.NewError(wstate.KindPrecondition, "session %s is not progress-driven", id)
	}
}

// IncrementHold advances a Hold session by one cadence tick. Returns
// (completed, error).
func (m *Manager) IncrementHold(id wstate.SessionID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return false, wstate.NewError(wstate.KindNotFound, "confirmation session %s", id)
	}
	method, ok := sess.method.(wstate.HoldMethod)
	if !ok {
		return false, wstate.NewError(wstate.KindPrecondition, "session %s is not a hold", id)
	}
	ticks := float64(method.Duration / holdCadence)
	if ticks <= 0 {
		ticks = 1
	}
	sess.progress += 1.0 / ticks
	if sess.progress >= 1.0 {
		sess.progress = 1.0
		return true, nil
	}
	return false, nil
}

// ResetHold zeroes a Hold session's progress (the gesture was released).
func (m *Manager) ResetHold(id wstate.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return wstate.NewError(wstate.KindNotFound, "confirmation session %s", id)
	}
	if _, ok := sess.method.(wstate.HoldMethod); !ok {
		return wstate.NewError(wstate.KindPrecondition, "session %s is not a hold", id)
	}
	sess.progress = 0
	return nil
}

// Confirm finalizes and removes a completed session, returning the command
// text the caller must forward to the hub's PTY.
func (m *Manager) Confirm(id wstate.SessionID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return "", wstate.NewError(wstate.KindNotFound, "confirmation session %s", id)
	}
	delete(m.sessions, id)
	m.logEvent("confirmed", sess)
	return sess.command, nil
}

// Cancel removes a session without executing its command.
func (m *Manager) Cancel(id wstate.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return wstate.NewError(wstate.KindNotFound, "confirmation session %s", id)
	}
	delete(m.sessions, id)
	m.logEvent("cancelled", sess)
	return nil
}

// PruneExpired removes every session older than globalTimeout, returning
// their ids so the caller can clear the world-state's pending slot for any
// of them that it still references.
func (m *Manager) PruneExpired(now time.Time) []wstate.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []wstate.SessionID
	for id, sess := range m.sessions {
		if now.Sub(sess.startedAt) >= globalTimeout {
			expired = append(expired, id)
			delete(m.sessions, id)
			m.logEvent("expired", sess)
		}
	}
	return expired
}

// RunPruner blocks, ticking PruneExpired at pruneTickInterval, and calling
// onExpired (under the caller's own locking discipline — typically
// wstate.Do) for every id it evicted. Intended to run in its own goroutine
// for the lifetime of the Brain.
func (m *Manager) RunPruner(stop <-chan struct{}, onExpired func([]wstate.SessionID)) {
	ticker := time.NewTicker(pruneTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if expired := m.PruneExpired(now); len(expired) > 0 && onExpired != nil {
				onExpired(expired)
			}
		}
	}
}

func (m *Manager) logEvent(action string, sess *confirmationSession) {
	if m.audit == nil {
		return
	}
	m.audit.Log(map[string]any{
		"event":    "confirmation_" + action,
		"session":  sess.id.String(),
		"hub":      sess.hubID.String(),
		"command":  sess.command,
		"risk":     string(sess.risk),
		"progress": sess.progress,
		"method":   fmt.Sprintf("%T", sess.method),
	})
}
