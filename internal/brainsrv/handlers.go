package brainsrv

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"silexa/brain/internal/wstate"
)

// dispatchEffects collects side effects a dispatcher verb must not perform
// while the world lock is held: PTY writes, audit log entries, and webhook
// notifications (spec §4.E, §5: never block on I/O under the lock).
type dispatchEffects = struct {
	hubID  wstate.HubID
	text   string
	ok     bool
	audit  []map[string]any
	notify map[string]any
}

// handlePromptSubmit runs the dangerous-command gate (spec §4.D). A safe
// command is queued for a post-unlock PTY write; a dangerous one opens a
// confirmation session and is never forwarded. A Critical-risk match also
// queues a notifier webhook (DESIGN.md's supplemented notifier feature).
func (b *Brain) handlePromptSubmit(w *wstate.World, cmd string, out *dispatchEffects) (string, error) {
	hub, err := w.ActiveHub()
	if err != nil {
		return "", err
	}

	if p := b.Security.Classify(cmd); p != nil {
		if w.PendingConfirmation != nil {
			return "", wstate.NewError(wstate.KindPrecondition, "a confirmation is already pending")
		}
		pc, openErr := b.Security.Open(hub.ID, cmd, p)
		if openErr != nil {
			return "", openErr
		}
		w.PendingConfirmation = pc
		hub.ConfirmationRequired = cmd
		b.rememberConfirmHub(pc.SessionID, hub.ID)
		if p.Risk == wstate.RiskCritical {
			out.notify = map[string]any{
				"event":   "confirmation_opened",
				"session": pc.SessionID.String(),
				"hub":     hub.ID.String(),
				"command": cmd,
				"risk":    string(p.Risk),
			}
		}
		return "OK", nil
	}

	out.hubID = hub.ID
	out.text = cmd + "\n"
	out.ok = true
	hub.Prompt = ""
	return "OK", nil
}

func (b *Brain) handleUpdateProgress(w *wstate.World, payload string, out *dispatchEffects) (string, error) {
	idStr, valStr, found := strings.Cut(payload, ":")
	if !found {
		return "", wstate.NewError(wstate.KindMalformed, "update_confirmation_progress requires id:value")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return "", wstate.NewError(wstate.KindMalformed, "bad session id: %v", err)
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return "", wstate.NewError(wstate.KindMalformed, "bad progress value: %v", err)
	}
	done, err := b.Security.UpdateProgress(id, val)
	if err != nil {
		return "", err
	}
	if w.PendingConfirmation != nil && w.PendingConfirmation.SessionID == id {
		w.PendingConfirmation.Progress = val
	}
	if done {
		return b.finishConfirmation(w, id, out)
	}
	return "OK", nil
}

func (b *Brain) handleConfirm(w *wstate.World, payload string, out *dispatchEffects) (string, error) {
	id, err := uuid.Parse(payload)
	if err != nil {
		return "", wstate.NewError(wstate.KindMalformed, "bad session id: %v", err)
	}
	cmd, err := b.Security.Confirm(id)
	if err != nil {
		return "", err
	}
	if w.PendingConfirmation != nil && w.PendingConfirmation.SessionID == id {
		w.PendingConfirmation = nil
	}
	if hubID, ok := b.takeConfirmHub(id); ok {
		if hub := w.HubByID(hubID); hub != nil {
			hub.ConfirmationRequired = ""
		}
		out.hubID = hubID
		out.text = cmd + "\n"
		out.ok = true
	}
	return "OK", nil
}

func (b *Brain) handleCancel(w *wstate.World, payload string) (string, error) {
	id, err := uuid.Parse(payload)
	if err != nil {
		return "", wstate.NewError(wstate.KindMalformed, "bad session id: %v", err)
	}
	if err := b.Security.Cancel(id); err != nil {
		return "", err
	}
	if w.PendingConfirmation != nil && w.PendingConfirmation.SessionID == id {
		w.PendingConfirmation = nil
	}
	if hubID, ok := b.takeConfirmHub(id); ok {
		if hub := w.HubByID(hubID); hub != nil {
			hub.ConfirmationRequired = ""
		}
	}
	return "OK", nil
}

func (b *Brain) handleIncrementHold(w *wstate.World, payload string) (string, error) {
	id, err := uuid.Parse(payload)
	if err != nil {
		return "", wstate.NewError(wstate.KindMalformed, "bad session id: %v", err)
	}
	done, err := b.Security.IncrementHold(id)
	if err != nil {
		return "", err
	}
	if done {
		if w.PendingConfirmation != nil && w.PendingConfirmation.SessionID == id {
			w.PendingConfirmation.Progress = 1.0
		}
		return "OK", nil // caller still issues confirm_command to actually forward
	}
	return "OK", nil
}

func (b *Brain) handleResetHold(w *wstate.World, payload string) (string, error) {
	id, err := uuid.Parse(payload)
	if err != nil {
		return "", wstate.NewError(wstate.KindMalformed, "bad session id: %v", err)
	}
	return okOrErr(b.Security.ResetHold(id))
}

// finishConfirmation is shared by the Slider/MultiButton completion path
// (which, unlike Hold, auto-forwards on completion rather than waiting for a
// separate confirm_command frame). The PTY write itself is deferred to the
// caller via out, same as every other dispatcher path: never write while
// the world lock is held.
func (b *Brain) finishConfirmation(w *wstate.World, id wstate.SessionID, out *dispatchEffects) (string, error) {
	cmd, err := b.Security.Confirm(id)
	if err != nil {
		return "", err
	}
	if w.PendingConfirmation != nil && w.PendingConfirmation.SessionID == id {
		w.PendingConfirmation = nil
	}
	if hubID, ok := b.takeConfirmHub(id); ok {
		if hub := w.HubByID(hubID); hub != nil {
			hub.ConfirmationRequired = ""
		}
		out.hubID = hubID
		out.text = cmd + "\n"
		out.ok = true
	}
	return "OK", nil
}

func (b *Brain) handleSearch(w *wstate.World, query string) (string, error) {
	hub, err := w.ActiveHub()
	if err != nil {
		return "", err
	}
	hub.SearchQuery = query
	if query == "" {
		hub.SearchResults = nil
	}
	return "OK", nil
}

func (b *Brain) handleDirNavigate(w *wstate.World, target string) (string, error) {
	hub, err := w.ActiveHub()
	if err != nil {
		return "", err
	}
	if hub.Directory == nil {
		return "", wstate.NewError(wstate.KindPrecondition, "no directory listing loaded")
	}
	if target == ".." {
		hub.CurrentDirectory = hub.Directory.Parent
	} else {
		hub.CurrentDirectory = strings.TrimRight(hub.CurrentDirectory, "/") + "/" + target
	}
	return "OK", nil
}

func (b *Brain) handleAppToggleSelect(w *wstate.World, payload string) (string, error) {
	hub, err := w.ActiveHub()
	if err != nil {
		return "", err
	}
	if hub.SelectedItems == nil {
		hub.SelectedItems = map[string]bool{}
	}
	hub.SelectedItems[payload] = !hub.SelectedItems[payload]
	return "OK", nil
}

func (b *Brain) handleAppBatchKill(w *wstate.World) (string, error) {
	hub, err := w.ActiveHub()
	if err != nil {
		return "", err
	}
	for idStr, selected := range hub.SelectedItems {
		if !selected {
			continue
		}
		if id, parseErr := uuid.Parse(idStr); parseErr == nil {
			_ = w.KillApp(id)
		}
	}
	hub.SelectedItems = nil
	return "OK", nil
}
