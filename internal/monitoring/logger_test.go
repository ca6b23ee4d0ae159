package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("case %s finished", "fe56_2MeV_endfb80")

	if got != "case fe56_2MeV_endfb80 finished" {
		t.Errorf("custom logger received %q", got)
	}

	// nil installs a no-op that must not reach the previous logger
	got = ""
	SetLogger(nil)
	Logf("dropped")
	if got != "" {
		t.Errorf("no-op logger forwarded %q", got)
	}
}

func TestQuiet(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	calls := 0
	SetLogger(func(string, ...interface{}) { calls++ })

	restore := Quiet()
	Logf("muted")
	if calls != 0 {
		t.Fatalf("Quiet should mute logging, got %d calls", calls)
	}

	restore()
	Logf("audible")
	if calls != 1 {
		t.Errorf("restore should reinstate previous logger, got %d calls", calls)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
	Logf("test message: %s", "value")
}
