package questionnaire

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps answers for the process lifetime. Useful for local
// development and tests; production deployments configure postgres.
type InMemoryStore struct {
	mu       sync.Mutex
	answers  []StoredAnswer
	complete map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{complete: make(map[string]bool)}
}

func (s *InMemoryStore) SaveAnswer(_ context.Context, callID, sectionID, linkID string, value Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := StoredAnswer{
		CallID:     callID,
		SectionID:  sectionID,
		LinkID:     linkID,
		ValueText:  value.Text,
		AnsweredAt: time.Now().UTC(),
	}
	if value.Kind == AnswerInt {
		n := value.Int
		stored.ValueInt = &n
	}

	for i, existing := range s.answers {
		if existing.CallID == callID && existing.LinkID == linkID {
			s.answers[i] = stored
			return nil
		}
	}
	s.answers = append(s.answers, stored)
	return nil
}

func (s *InMemoryStore) MarkSectionComplete(_ context.Context, callID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete[callID+"/"+sectionID] = true
	return nil
}

func (s *InMemoryStore) Answers(_ context.Context, callID string) ([]StoredAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredAnswer, 0, len(s.answers))
	for _, a := range s.answers {
		if a.CallID == callID {
			out = append(out, a)
		}
	}
	return out, nil
}

// SectionComplete reports whether a section was marked complete.
func (s *InMemoryStore) SectionComplete(callID, sectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete[callID+"/"+sectionID]
}

func (s *InMemoryStore) Close() {}
