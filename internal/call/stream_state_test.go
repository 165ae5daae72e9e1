package call

import "testing"

func TestBeginStreamResetsBookkeeping(t *testing.T) {
	var s StreamState
	s.NoteAudioDelta("item0", "m0")
	s.BeginStream("S1")

	if s.MediaStreamID != "S1" {
		t.Fatalf("MediaStreamID = %q, want %q", s.MediaStreamID, "S1")
	}
	if s.LastInboundMs == nil || *s.LastInboundMs != 0 {
		t.Fatalf("LastInboundMs = %v, want 0", s.LastInboundMs)
	}
	if s.UtteranceStartMs != nil {
		t.Fatalf("UtteranceStartMs = %v, want nil", s.UtteranceStartMs)
	}
}

func TestNoteAudioDeltaPinsStartOnFirstChunkOnly(t *testing.T) {
	var s StreamState
	s.BeginStream("S1")
	s.AdvanceInbound(100)
	s.NoteAudioDelta("item1", "m1")
	s.AdvanceInbound(500)
	s.NoteAudioDelta("item1", "m2")

	if s.UtteranceStartMs == nil || *s.UtteranceStartMs != 100 {
		t.Fatalf("UtteranceStartMs = %v, want 100", s.UtteranceStartMs)
	}
	if len(s.PendingMarks) != 2 {
		t.Fatalf("PendingMarks = %d, want 2", len(s.PendingMarks))
	}
}

func TestNoteAudioDeltaBeforeAnyInboundDefaultsToZero(t *testing.T) {
	var s StreamState
	s.NoteAudioDelta("item1", "m1")
	if s.UtteranceStartMs == nil || *s.UtteranceStartMs != 0 {
		t.Fatalf("UtteranceStartMs = %v, want 0", s.UtteranceStartMs)
	}
}

func TestInterruptReturnsElapsedAndClears(t *testing.T) {
	var s StreamState
	s.BeginStream("S1")
	s.AdvanceInbound(100)
	s.NoteAudioDelta("item1", "m1")
	s.AdvanceInbound(460)

	if !s.Interruptible() {
		t.Fatalf("Interruptible() = false, want true")
	}
	itemID, elapsed := s.Interrupt()
	if itemID != "item1" {
		t.Fatalf("itemID = %q, want %q", itemID, "item1")
	}
	if elapsed != 360 {
		t.Fatalf("elapsed = %d, want 360", elapsed)
	}
	if s.Interruptible() {
		t.Fatalf("Interruptible() = true after Interrupt")
	}
	if len(s.PendingMarks) != 0 || s.InFlightItemID != "" || s.UtteranceStartMs != nil {
		t.Fatalf("state not cleared: %+v", s)
	}
}

func TestInterruptibleRequiresPendingMarks(t *testing.T) {
	var s StreamState
	s.BeginStream("S1")
	s.AdvanceInbound(100)
	s.NoteAudioDelta("item1", "m1")
	s.PopMark()

	if s.Interruptible() {
		t.Fatalf("Interruptible() = true with empty mark queue")
	}
}

func TestPopMarkOnEmptyQueueIsNoop(t *testing.T) {
	var s StreamState
	s.PopMark()
	if len(s.PendingMarks) != 0 {
		t.Fatalf("PendingMarks = %d, want 0", len(s.PendingMarks))
	}
}

func TestEndUtteranceKeepsMarksButClearsTracking(t *testing.T) {
	var s StreamState
	s.BeginStream("S1")
	s.AdvanceInbound(100)
	s.NoteAudioDelta("item1", "m1")
	s.EndUtterance()

	if s.InFlightItemID != "" || s.UtteranceStartMs != nil {
		t.Fatalf("tracking not cleared: %+v", s)
	}
	if len(s.PendingMarks) != 1 {
		t.Fatalf("PendingMarks = %d, want 1 (playback acks still pending)", len(s.PendingMarks))
	}
}
