package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/carelinehq/intakeline/internal/questionnaire"
)

func saveInt(t *testing.T, store questionnaire.Store, callID, linkID string, v int64) {
	t.Helper()
	err := store.SaveAnswer(context.Background(), callID, "sec", linkID, questionnaire.Answer{
		Kind: questionnaire.AnswerInt,
		Int:  v,
	})
	if err != nil {
		t.Fatalf("SaveAnswer(%s) error = %v", linkID, err)
	}
}

func TestGenerateHighBPWithSymptoms(t *testing.T) {
	store := questionnaire.NewInMemoryStore()
	saveInt(t, store, "c1", "systolic", 152)
	saveInt(t, store, "c1", "diastolic", 96)
	saveInt(t, store, "c1", "breathlessness", 2)
	saveInt(t, store, "c1", "fatigue", 3)

	p := NewTableProvider(store)
	text, err := p.Generate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(text, "as soon as possible") {
		t.Fatalf("Generate() = %q, want urgent guidance", text)
	}
}

func TestGenerateHighBPAlone(t *testing.T) {
	store := questionnaire.NewInMemoryStore()
	saveInt(t, store, "c1", "systolic", 145)
	saveInt(t, store, "c1", "diastolic", 80)

	p := NewTableProvider(store)
	text, err := p.Generate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(text, "higher than your target range") {
		t.Fatalf("Generate() = %q, want high BP guidance", text)
	}
}

func TestGenerateElevatedBP(t *testing.T) {
	store := questionnaire.NewInMemoryStore()
	saveInt(t, store, "c1", "systolic", 132)
	saveInt(t, store, "c1", "diastolic", 80)

	p := NewTableProvider(store)
	text, err := p.Generate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(text, "slightly elevated") {
		t.Fatalf("Generate() = %q, want elevated BP guidance", text)
	}
}

func TestGenerateSymptomsOnly(t *testing.T) {
	store := questionnaire.NewInMemoryStore()
	saveInt(t, store, "c1", "breathlessness", 2)
	saveInt(t, store, "c1", "swelling", 3)

	p := NewTableProvider(store)
	text, err := p.Generate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(text, "symptoms are more noticeable") {
		t.Fatalf("Generate() = %q, want symptom guidance", text)
	}
}

func TestGenerateAllClear(t *testing.T) {
	store := questionnaire.NewInMemoryStore()
	saveInt(t, store, "c1", "systolic", 118)
	saveInt(t, store, "c1", "diastolic", 76)
	saveInt(t, store, "c1", "fatigue", 1)

	p := NewTableProvider(store)
	text, err := p.Generate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(text, "look good today") {
		t.Fatalf("Generate() = %q, want all-clear guidance", text)
	}
}

func TestGenerateNoDataIsError(t *testing.T) {
	store := questionnaire.NewInMemoryStore()
	p := NewTableProvider(store)
	if _, err := p.Generate(context.Background(), "c1"); !errors.Is(err, ErrNoVitals) {
		t.Fatalf("Generate() error = %v, want ErrNoVitals", err)
	}
}

func TestGenerateIgnoresTextAnswersForVitals(t *testing.T) {
	store := questionnaire.NewInMemoryStore()
	err := store.SaveAnswer(context.Background(), "c1", "sec", "systolic", questionnaire.Answer{
		Kind: questionnaire.AnswerText,
		Text: "one forty",
	})
	if err != nil {
		t.Fatalf("SaveAnswer() error = %v", err)
	}

	p := NewTableProvider(store)
	if _, err := p.Generate(context.Background(), "c1"); !errors.Is(err, ErrNoVitals) {
		t.Fatalf("Generate() error = %v, want ErrNoVitals for non-numeric vitals", err)
	}
}
