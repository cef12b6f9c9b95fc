package scheduler

import "testing"

func TestNextJob_RoundRobin(t *testing.T) {
	s := New(DefaultConfig())

	want := []JobType{
		JobLoad, JobReprioritize, JobEvict, JobAdjustDetail,
		JobLoad, JobReprioritize, JobEvict, JobAdjustDetail,
	}

	for i, expected := range want {
		if got := s.NextJob(); got != expected {
			t.Fatalf("tick %d: expected %s, got %s", i, expected, got)
		}
	}

	if s.Frames() != uint64(len(want)) {
		t.Errorf("expected %d frames, got %d", len(want), s.Frames())
	}
}

func TestUpdateCameraPosition_FirstUpdateFlagsMoved(t *testing.T) {
	s := New(DefaultConfig())

	if s.ShouldCheckPriorities() {
		t.Fatal("expected no movement before any update")
	}

	s.UpdateCameraPosition(0, 0, 0)
	if !s.ShouldCheckPriorities() {
		t.Error("expected first update to flag moved (initial sort)")
	}
}

func TestUpdateCameraPosition_Threshold(t *testing.T) {
	s := New(Config{MovementThreshold: 1.0})
	s.UpdateCameraPosition(0, 0, 0)

	// Displacement 0.5: under threshold.
	s.UpdateCameraPosition(0.5, 0, 0)
	if s.ShouldCheckPriorities() {
		t.Error("expected sub-threshold displacement to clear the flag")
	}

	// Displacement from stored (0,0,0) is 2: over threshold.
	s.UpdateCameraPosition(2, 0, 0)
	if !s.ShouldCheckPriorities() {
		t.Error("expected displacement over threshold to set the flag")
	}
}

func TestUpdateCameraPosition_StoredOnlyOnMove(t *testing.T) {
	s := New(Config{MovementThreshold: 1.0})
	s.UpdateCameraPosition(0, 0, 0)

	// Creep in 0.6-unit steps. Each step is under the threshold relative
	// to the stored position only until accumulated displacement passes it.
	s.UpdateCameraPosition(0.6, 0, 0)
	if s.ShouldCheckPriorities() {
		t.Fatal("0.6 displacement should not trigger")
	}
	s.UpdateCameraPosition(1.2, 0, 0)
	if !s.ShouldCheckPriorities() {
		t.Error("accumulated 1.2 displacement from stored position should trigger")
	}
}

func TestClearMoved(t *testing.T) {
	s := New(Config{MovementThreshold: 1.0})
	s.UpdateCameraPosition(0, 0, 0)
	if !s.ShouldCheckPriorities() {
		t.Fatal("first update should flag moved")
	}

	// A tick without a viewer position must not inherit the verdict.
	s.ClearMoved()
	if s.ShouldCheckPriorities() {
		t.Error("moved flag should be cleared")
	}

	// Movement after the clear flags again.
	s.UpdateCameraPosition(5, 0, 0)
	if !s.ShouldCheckPriorities() {
		t.Error("fresh movement should flag moved again")
	}
}
