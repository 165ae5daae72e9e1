package questionnaire

import (
	"errors"
	"testing"
)

func testSection(store Store, id string, questions ...Question) Section {
	return Section{
		ID:      id,
		Title:   id,
		Tracker: NewSurveyTracker(store, "call1", id, questions),
	}
}

func answeredSection(store Store, id string) Section {
	sec := testSection(store, id, Question{LinkID: id + "-q1", Text: "q", Required: true})
	sec.Tracker.SaveAnswer(id+"-q1", Answer{Kind: AnswerInt, Int: 1})
	return sec
}

func TestNewSequencerSkipsIneligibleSections(t *testing.T) {
	store := NewInMemoryStore()
	sections := []Section{
		answeredSection(store, "a"),
		testSection(store, "b", Question{LinkID: "b1", Text: "q", Required: true}),
		{ID: "c", Title: "c"}, // no tracker
		testSection(store, "d", Question{LinkID: "d1", Text: "q", Required: true}),
	}

	seq, err := NewSequencer(sections)
	if err != nil {
		t.Fatalf("NewSequencer() error = %v", err)
	}
	if seq.Current().ID != "b" {
		t.Fatalf("Current() = %q, want %q", seq.Current().ID, "b")
	}
	if seq.EligibleCount() != 2 {
		t.Fatalf("EligibleCount() = %d, want 2", seq.EligibleCount())
	}
	rank, total := seq.DisplayPosition()
	if rank != 1 || total != 2 {
		t.Fatalf("DisplayPosition() = (%d, %d), want (1, 2)", rank, total)
	}
}

func TestNewSequencerNothingToCollect(t *testing.T) {
	store := NewInMemoryStore()
	sections := []Section{
		answeredSection(store, "a"),
		{ID: "b", Title: "b"},
	}
	seq, err := NewSequencer(sections)
	if !errors.Is(err, ErrNothingToCollect) {
		t.Fatalf("NewSequencer() error = %v, want ErrNothingToCollect", err)
	}
	if seq == nil {
		t.Fatalf("NewSequencer() = nil sequencer")
	}
}

func TestSequencerAdvanceIsForwardOnly(t *testing.T) {
	store := NewInMemoryStore()
	sections := []Section{
		testSection(store, "a", Question{LinkID: "a1", Text: "q", Required: true}),
		testSection(store, "b", Question{LinkID: "b1", Text: "q", Required: true}),
	}
	seq, err := NewSequencer(sections)
	if err != nil {
		t.Fatalf("NewSequencer() error = %v", err)
	}

	if err := seq.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if seq.Current().ID != "b" {
		t.Fatalf("Current() = %q, want %q", seq.Current().ID, "b")
	}
	rank, total := seq.DisplayPosition()
	if rank != 2 || total != 2 {
		t.Fatalf("DisplayPosition() = (%d, %d), want (2, 2)", rank, total)
	}

	if err := seq.Advance(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Advance() past end error = %v, want ErrExhausted", err)
	}
	if seq.Current().ID != "b" {
		t.Fatalf("Current() = %q after exhausted advance, want %q", seq.Current().ID, "b")
	}
}

func TestSequencerTotalStaysConstantMidCall(t *testing.T) {
	store := NewInMemoryStore()
	sections := []Section{
		testSection(store, "a", Question{LinkID: "a1", Text: "q", Required: true}),
		testSection(store, "b", Question{LinkID: "b1", Text: "q", Required: true}),
	}
	seq, err := NewSequencer(sections)
	if err != nil {
		t.Fatalf("NewSequencer() error = %v", err)
	}

	// Answering everything mid-call must not shrink the displayed total.
	sections[0].Tracker.SaveAnswer("a1", Answer{Kind: AnswerInt, Int: 1})
	sections[1].Tracker.SaveAnswer("b1", Answer{Kind: AnswerInt, Int: 2})

	_, total := seq.DisplayPosition()
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
}
