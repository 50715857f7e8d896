package procrunner

import (
	"testing"
	"time"
)

func TestLaunchWaitExitsCleanly(t *testing.T) {
	r := NewRunner()
	h, pid, err := r.Launch([]string{"/bin/sh", "-c", "exit 0"}, nil, "", Stdio{}, -1)
	if err != nil {
		t.Fatal(err)
	}
	if pid == 0 {
		t.Fatal("expected non-zero pid")
	}
	st, err := r.Wait(h)
	if err != nil {
		t.Fatal(err)
	}
	if st.Signaled || st.Code != 0 {
		t.Fatalf("status = %+v, want clean exit", st)
	}
}

func TestTerminateAndWaitEscalatesPastTimeout(t *testing.T) {
	r := NewRunner()
	h, _, err := r.Launch([]string{"/bin/sh", "-c", "trap '' TERM; sleep 5"}, nil, "", Stdio{}, -1)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	reason, err := r.TerminateAndWait(h, 200*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("TerminateAndWait took %v, want escalation well under the 5s sleep", elapsed)
	}
	if reason != TerminationReasonUncaughtSignal {
		t.Fatalf("reason = %v, want TerminationReasonUncaughtSignal (SIGKILL)", reason)
	}
}

func TestTerminateAndWaitGracefulWithinTimeout(t *testing.T) {
	r := NewRunner()
	h, _, err := r.Launch([]string{"/bin/sh", "-c", "sleep 5"}, nil, "", Stdio{}, -1)
	if err != nil {
		t.Fatal(err)
	}
	reason, err := r.TerminateAndWait(h, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if reason != TerminationReasonUncaughtSignal {
		t.Fatalf("reason = %v, want TerminationReasonUncaughtSignal (SIGTERM)", reason)
	}
}
