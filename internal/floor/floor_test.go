package floor

import "testing"

func TestStopWhileSpeaking(t *testing.T) {
	f := New()
	f.OnSpeakStarted("u1")
	d := f.OnStop()
	if !d.ShouldStop || d.Reason != "stopped" || d.StopUtteranceID != "u1" {
		t.Fatalf("expected stop while speaking, got %+v", d)
	}
	if f.Speaking() {
		t.Fatalf("speaker should be released")
	}
}

func TestStopIdleDoesNothing(t *testing.T) {
	f := New()
	if d := f.OnStop(); d.ShouldStop {
		t.Fatalf("should not stop when idle")
	}
}

func TestNewUtteranceSupersedes(t *testing.T) {
	f := New()
	f.OnSpeakStarted("u1")
	d := f.OnSpeakStarted("u2")
	if !d.ShouldStop || d.StopUtteranceID != "u1" || d.Reason != "superseded" {
		t.Fatalf("expected u1 superseded, got %+v", d)
	}
	if f.Active() != "u2" {
		t.Fatalf("active = %q, want u2", f.Active())
	}
}

func TestLateStopOfSupersededIgnored(t *testing.T) {
	f := New()
	f.OnSpeakStarted("u1")
	f.OnSpeakStarted("u2")
	f.OnSpeakStopped("u1")
	if !f.Speaking() || f.Active() != "u2" {
		t.Fatalf("u2 should still own the speaker")
	}
	f.OnSpeakStopped("u2")
	if f.Speaking() {
		t.Fatalf("speaker should be released after u2 stopped")
	}
}

func TestVoiceDisabledAndClear(t *testing.T) {
	f := New()
	f.OnSpeakStarted("u1")
	if d := f.OnVoiceDisabled(); d.Reason != "voice_disabled" || !d.ShouldStop {
		t.Fatalf("unexpected decision %+v", d)
	}
	f.OnSpeakStarted("u2")
	if d := f.OnClear(); d.Reason != "cleared" || d.StopUtteranceID != "u2" {
		t.Fatalf("unexpected decision %+v", d)
	}
}
