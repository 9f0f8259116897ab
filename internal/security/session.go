package security

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"silexa/brain/internal/wstate"
)

const (
	holdDuration      = 3 * time.Second
	holdCadence       = 100 * time.Millisecond // ~10 Hz per spec §4.D
	globalTimeout     = 15 * time.Second
	pruneTickInterval = 1 * time.Second
)

// confirmationSession is the security manager's private record for one
// pending confirmation; wstate.PendingConfirmation is the world-state's
// read-only mirror of the same id.
type confirmationSession struct {
	id        wstate.SessionID
	hubID     wstate.HubID
	command   string
	risk      wstate.Risk
	method    wstate.ConfirmationMethod
	progress  float64
	startedAt time.Time

	multiStep int // MultiButton: last k reached, 0..N
}

// permuteLabels returns labels shuffled deterministically from seed, so a
// session's button order is stable across re-renders but varies per session
// (spec §4.D: "deterministic seed from session id").
func permuteLabels(seed string, labels []string) []string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	out := append([]string(nil), labels...)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// parseMethod decodes an override table's method column into a method
// constructor. Forms: "slider", "hold:<seconds>", "multibutton:a,b,c".
func parseMethod(spec string) (func(string) wstate.ConfirmationMethod, error) {
	kind, rest, _ := strings.Cut(spec, ":")
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "slider":
		return func(string) wstate.ConfirmationMethod { return wstate.SliderMethod{Target: 1.0} }, nil
	case "hold":
		secs, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil || secs <= 0 {
			secs = holdDuration.Seconds()
		}
		d := time.Duration(secs * float64(time.Second))
		return func(string) wstate.ConfirmationMethod {
			return wstate.HoldMethod{Target: "EXECUTE", Duration: d}
		}, nil
	case "multibutton":
		labels := strings.Split(rest, ",")
		for i := range labels {
			labels[i] = strings.TrimSpace(labels[i])
		}
		return func(seed string) wstate.ConfirmationMethod {
			return wstate.MultiButtonMethod{Sequence: permuteLabels(seed, labels)}
		}, nil
	default:
		return nil, fmt.Errorf("unknown confirmation method %q", spec)
	}
}
