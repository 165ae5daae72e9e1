package questionnaire

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// AnswerKind discriminates how a caller's answer was decoded.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerInt
	AnswerText
)

// Answer is a resolved questionnaire answer. Decoding happens once; the
// resolved value is never re-interpreted afterwards.
type Answer struct {
	Kind AnswerKind
	Int  int64
	Text string
}

// DecodeAnswer resolves a raw JSON answer: integer first, then string,
// then the no-answer sentinel.
func DecodeAnswer(raw json.RawMessage) Answer {
	if len(raw) == 0 {
		return Answer{Kind: AnswerNone}
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return Answer{Kind: AnswerInt, Int: n}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Answer{Kind: AnswerText, Text: s}
	}
	return Answer{Kind: AnswerNone}
}

func (a Answer) String() string {
	switch a.Kind {
	case AnswerInt:
		return jsonNumber(a.Int)
	case AnswerText:
		return a.Text
	default:
		return ""
	}
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// Question is one questionnaire item presented to the caller.
type Question struct {
	LinkID   string `json:"linkId"`
	Text     string `json:"text"`
	Required bool   `json:"required"`
}

// Tracker exposes per-section questionnaire progress.
type Tracker interface {
	// NextQuestion returns the next unanswered question, if any.
	NextQuestion() (Question, bool)
	// SaveAnswer records the answer for linkID; false when linkID is unknown.
	SaveAnswer(linkID string, value Answer) bool
	// CountAnswered reports how many questions have answers.
	CountAnswered() int
	// HasUnanswered reports whether any required question lacks an answer.
	HasUnanswered() bool
	// Persist flushes recorded answers to the durable store.
	Persist(ctx context.Context) error
}

// Section pairs one questionnaire grouping with its progress tracker.
type Section struct {
	ID      string
	Title   string
	Tracker Tracker
}

// SurveyTracker is an ordered in-memory Tracker backed by a Store.
type SurveyTracker struct {
	mu        sync.Mutex
	callID    string
	sectionID string
	questions []Question
	answers   map[string]Answer
	store     Store
}

func NewSurveyTracker(store Store, callID, sectionID string, questions []Question) *SurveyTracker {
	return &SurveyTracker{
		callID:    callID,
		sectionID: sectionID,
		questions: questions,
		answers:   make(map[string]Answer, len(questions)),
		store:     store,
	}
}

func (t *SurveyTracker) NextQuestion() (Question, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, q := range t.questions {
		if _, ok := t.answers[q.LinkID]; !ok {
			return q, true
		}
	}
	return Question{}, false
}

func (t *SurveyTracker) SaveAnswer(linkID string, value Answer) bool {
	linkID = strings.TrimSpace(linkID)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, q := range t.questions {
		if q.LinkID == linkID {
			t.answers[linkID] = value
			return true
		}
	}
	return false
}

func (t *SurveyTracker) CountAnswered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.answers)
}

func (t *SurveyTracker) HasUnanswered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, q := range t.questions {
		if !q.Required {
			continue
		}
		if _, ok := t.answers[q.LinkID]; !ok {
			return true
		}
	}
	return false
}

func (t *SurveyTracker) Persist(ctx context.Context) error {
	t.mu.Lock()
	snapshot := make(map[string]Answer, len(t.answers))
	for k, v := range t.answers {
		snapshot[k] = v
	}
	t.mu.Unlock()

	for linkID, value := range snapshot {
		if err := t.store.SaveAnswer(ctx, t.callID, t.sectionID, linkID, value); err != nil {
			return err
		}
	}
	return nil
}
