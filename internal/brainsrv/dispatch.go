package brainsrv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"silexa/brain/internal/wstate"
)

// Dispatch applies one verb:payload frame to the world-state and returns the
// text reply the caller should write back verbatim (spec §4.E). It never
// panics: any internal error is converted to an "ERROR: ..." frame.
func (b *Brain) Dispatch(frame string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			if b.Logger != nil {
				b.Logger.Printf("dispatch panic recovered: %v", r)
			}
			reply = "ERROR: internal fault"
		}
	}()

	frame = strings.TrimRight(frame, "\r\n")
	verb, payload, _ := strings.Cut(frame, ":")
	verb = strings.TrimSpace(verb)
	if verb == "" {
		return "ERROR: Malformed request"
	}

	// eff collects every side effect a verb must not perform while the world
	// lock is held: a PTY write, audit log entries, a notifier webhook (spec
	// §4.E, §5: never block on I/O under the lock).
	var eff dispatchEffects

	result, err := wstate.Do(b.Store, func(w *wstate.World) (string, error) {
		switch verb {
		case "zoom_in":
			zoomErr := w.ZoomIn()
			if zoomErr == nil {
				recordDeepAccess(w, &eff, payload)
			}
			return okOrErr(zoomErr)
		case "zoom_out":
			return okOrErr(w.ZoomOut())
		case "tactical_reset":
			w.TacticalReset()
			return "OK", nil
		case "toggle_bezel":
			return okOrErr(w.ToggleBezel())
		case "optimize_system":
			w.PerformanceAlert = false
			return "OK", nil
		case "semantic_event":
			semErr := w.Dispatch(wstate.SemanticEvent(payload))
			if semErr == nil {
				recordDeepAccess(w, &eff, "")
			}
			return okOrErr(semErr)
		case "set_mode":
			return okOrErr(w.ToggleMode(wstate.Mode(payload)))
		case "select_sector":
			i, convErr := strconv.Atoi(payload)
			if convErr != nil {
				return "", wstate.NewError(wstate.KindMalformed, "select_sector: %v", convErr)
			}
			return okOrErr(w.SelectSector(i))
		case "sector_create":
			w.SectorCreate(payload, wstate.ConnLocal)
			return "OK", nil
		case "add_remote_sector":
			w.SectorCreate(payload, wstate.ConnSSH)
			return "OK", nil
		case "sector_close":
			i, convErr := strconv.Atoi(payload)
			if convErr != nil {
				return "", wstate.NewError(wstate.KindMalformed, "sector_close: %v", convErr)
			}
			return okOrErr(w.SectorClose(i))
		case "split_viewport":
			_, _, splitErr := w.SplitViewport(nil)
			return okOrErr(splitErr)
		case "prompt_submit":
			return b.handlePromptSubmit(w, payload, &eff)
		case "stage_command":
			return okOrErr(w.StageCommand(payload))
		case "focus_app":
			id, convErr := uuid.Parse(payload)
			if convErr != nil {
				return "", wstate.NewError(wstate.KindMalformed, "focus_app: %v", convErr)
			}
			return okOrErr(w.FocusAppByID(id))
		case "kill_app":
			id, convErr := uuid.Parse(payload)
			if convErr != nil {
				return "", wstate.NewError(wstate.KindMalformed, "kill_app: %v", convErr)
			}
			return okOrErr(w.KillApp(id))
		case "update_confirmation_progress":
			return b.handleUpdateProgress(w, payload, &eff)
		case "confirm_command":
			return b.handleConfirm(w, payload, &eff)
		case "cancel_confirmation":
			return b.handleCancel(w, payload)
		case "increment_hold":
			return b.handleIncrementHold(w, payload)
		case "reset_hold":
			return b.handleResetHold(w, payload)
		case "set_setting":
			key, val, found := strings.Cut(payload, ";")
			if !found {
				return "", wstate.NewError(wstate.KindMalformed, "set_setting requires key;value")
			}
			w.Settings[key] = val
			return "OK", nil
		case "open_settings", "close_settings":
			return "OK", nil
		case "set_fps":
			v, convErr := strconv.ParseFloat(payload, 64)
			if convErr != nil {
				return "", wstate.NewError(wstate.KindMalformed, "set_fps: %v", convErr)
			}
			w.FPSEstimate = v
			w.PerformanceAlert = v < 30
			return "OK", nil
		case "set_master_volume":
			v, convErr := strconv.Atoi(payload)
			if convErr != nil || v < 0 || v > 100 {
				return "", wstate.NewError(wstate.KindMalformed, "set_master_volume out of range")
			}
			w.Settings["master_volume"] = strconv.Itoa(v)
			return "OK", nil
		case "search":
			return b.handleSearch(w, payload)
		case "clear_search":
			return b.handleSearch(w, "")
		case "dir_navigate":
			return b.handleDirNavigate(w, payload)
		case "dir_toggle_hidden":
			hub, hubErr := w.ActiveHub()
			if hubErr != nil {
				return "", hubErr
			}
			hub.ShowHidden = !hub.ShowHidden
			return "OK", nil
		case "app_toggle_select":
			return b.handleAppToggleSelect(w, payload)
		case "app_batch_kill":
			return b.handleAppBatchKill(w)
		case "enable-deep-inspection":
			enabled, deepErr := w.EnableDeepInspection()
			if deepErr != nil {
				return "", deepErr
			}
			user := payload
			if user == "" {
				user = defaultAuditUser
			}
			address := w.ActiveSectorAddress()
			event := wstate.AuditDeepInspectionEnabled
			if !enabled {
				event = wstate.AuditDeepInspectionDisabled
			}
			eff.audit = append(eff.audit, map[string]any{"event": event, "user": user, "address": address})
			if enabled {
				eff.notify = map[string]any{"event": event, "user": user, "address": address}
			}
			return "OK", nil
		case "toggle_portal", "approve_portal", "deny_portal":
			return "OK", nil
		case "get_state":
			snap, snapErr := Snapshot(w)
			if snapErr != nil {
				return "", snapErr
			}
			return snap, nil
		default:
			return "", wstate.NewError(wstate.KindUnknownVerb, "%s", verb)
		}
	})

	if eff.ok {
		if sess := b.sessionFor(eff.hubID); sess != nil {
			_, _ = sess.Write([]byte(eff.text))
		}
	}
	for _, event := range eff.audit {
		b.logAudit(event)
	}
	if eff.notify != nil {
		go b.Notifier.Send(eff.notify)
	}

	if err != nil {
		return formatError(err)
	}
	return result
}

// defaultAuditUser labels deep-inspection audit records when a verb's
// payload carries no user id — this system has no per-user account model,
// so every caller is attributed to the same operator identity.
const defaultAuditUser = "operator"

// recordDeepAccess appends a DeepInspectionAccessed audit entry when the
// active viewport has just reached BufferInspector (spec §4.D, §8 scenario
// 4). Called after a zoom_in/semantic_event verb succeeds; a no-op if the
// active level isn't BufferInspector or the gate denies access.
func recordDeepAccess(w *wstate.World, eff *dispatchEffects, user string) {
	if user == "" {
		user = defaultAuditUser
	}
	address := w.ActiveSectorAddress()
	if !w.CheckDeepInspectionAccess(user, address) {
		return
	}
	level, err := w.ActiveLevel()
	if err != nil || level != wstate.BufferInspector {
		return
	}
	eff.audit = append(eff.audit, map[string]any{
		"event":   wstate.AuditDeepInspectionAccessed,
		"user":    user,
		"address": address,
	})
}

func okOrErr(err error) (string, error) {
	if err != nil {
		return "", err
	}
	return "OK", nil
}

func formatError(err error) string {
	if werr, ok := err.(*wstate.Error); ok {
		switch werr.Kind {
		case wstate.KindMalformed:
			return "ERROR: Malformed request"
		case wstate.KindUnknownVerb:
			return "ERROR: Unknown command"
		case wstate.KindPrivilegeRequired:
			return "ERROR: Privilege required"
		default:
			return fmt.Sprintf("ERROR: %s: %s", werr.Kind, werr.Detail)
		}
	}
	return "ERROR: " + err.Error()
}
