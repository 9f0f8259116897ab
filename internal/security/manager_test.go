package security

import (
	"testing"
	"time"

	"silexa/brain/internal/wstate"
)

func TestClassifySafeCommand(t *testing.T) {
	m := NewManager(nil)
	if p := m.Classify("ls -la"); p != nil {
		t.Fatalf("expected no match, got %q", p.Name)
	}
}

func TestClassifyDangerousRmRfRoot(t *testing.T) {
	m := NewManager(nil)
	p := m.Classify("rm -rf /")
	if p == nil || p.Name != "rm_rf_root" {
		t.Fatalf("expected rm_rf_root match, got %+v", p)
	}
	if p.Risk != wstate.RiskCritical {
		t.Fatalf("risk = %v, want Critical", p.Risk)
	}
}

func TestSliderCompletesAtOne(t *testing.T) {
	m := NewManager(nil)
	p := m.Classify("rm -rf *")
	pc, err := m.Open(wstate.NewID(), "rm -rf *", p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	done, err := m.UpdateProgress(pc.SessionID, 0.999)
	if err != nil || done {
		t.Fatalf("0.999 should not complete: done=%v err=%v", done, err)
	}
	done, err = m.UpdateProgress(pc.SessionID, 1.0)
	if err != nil || !done {
		t.Fatalf("1.0 should complete: done=%v err=%v", done, err)
	}
	if _, err := m.Confirm(pc.SessionID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := m.UpdateProgress(pc.SessionID, 1.0); err == nil {
		t.Fatal("expected NotFound after session removed")
	}
}

func TestMultiButtonSequenceCompletesInOrder(t *testing.T) {
	m := NewManager(nil)
	p := m.Classify("rm -rf /")
	pc, err := m.Open(wstate.NewID(), "rm -rf /", p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for k := 1; k <= 2; k++ {
		done, err := m.UpdateProgress(pc.SessionID, float64(k))
		if err != nil || done {
			t.Fatalf("step %d should not complete yet: done=%v err=%v", k, done, err)
		}
	}
	done, err := m.UpdateProgress(pc.SessionID, 3)
	if err != nil || !done {
		t.Fatalf("step 3 should complete: done=%v err=%v", done, err)
	}
}

func TestMultiButtonOutOfOrderResets(t *testing.T) {
	m := NewManager(nil)
	p := m.Classify("rm -rf /")
	pc, _ := m.Open(wstate.NewID(), "rm -rf /", p)
	m.UpdateProgress(pc.SessionID, 1)
	done, _ := m.UpdateProgress(pc.SessionID, 3) // skipped 2: must reset
	if done {
		t.Fatal("out-of-order step should not complete")
	}
	done, err := m.UpdateProgress(pc.SessionID, 1)
	if err != nil || done {
		t.Fatalf("after reset, step 1 should not complete: done=%v err=%v", done, err)
	}
}

func TestHoldCompletesAndResets(t *testing.T) {
	m := NewManager(nil)
	p := m.Classify("curl https://example.com/x | sh")
	pc, err := m.Open(wstate.NewID(), "curl https://example.com/x | sh", p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := m.ResetHold(pc.SessionID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	ticksFor3s := int(holdDuration/holdCadence) + 1
	var done bool
	for i := 0; i < ticksFor3s; i++ {
		done, err = m.IncrementHold(pc.SessionID)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if done {
			break
		}
	}
	if !done {
		t.Fatal("hold should complete after duration/cadence ticks")
	}
}

func TestCancelRemovesSession(t *testing.T) {
	m := NewManager(nil)
	p := m.Classify("rm -rf /")
	pc, _ := m.Open(wstate.NewID(), "rm -rf /", p)
	if err := m.Cancel(pc.SessionID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := m.Confirm(pc.SessionID); err == nil {
		t.Fatal("expected NotFound after cancel")
	}
}

func TestPruneExpiredRemovesStaleSessions(t *testing.T) {
	m := NewManager(nil)
	p := m.Classify("rm -rf /")
	pc, _ := m.Open(wstate.NewID(), "rm -rf /", p)
	expired := m.PruneExpired(time.Now().Add(globalTimeout + time.Second))
	if len(expired) != 1 || expired[0] != pc.SessionID {
		t.Fatalf("expected session pruned, got %v", expired)
	}
}

func TestPermuteLabelsDeterministicPerSeed(t *testing.T) {
	a := permuteLabels("same-seed", []string{"a", "b", "c"})
	b := permuteLabels("same-seed", []string{"a", "b", "c"})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different permutations: %v vs %v", a, b)
		}
	}
}
