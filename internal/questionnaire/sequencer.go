package questionnaire

import "errors"

var (
	// ErrNothingToCollect means no section has outstanding required questions.
	ErrNothingToCollect = errors.New("no section has unanswered required questions")
	// ErrExhausted means the sequencer has advanced past the last eligible section.
	ErrExhausted = errors.New("no further eligible section")
)

// Sequencer walks an ordered, fixed list of questionnaire sections.
// Eligibility is computed once at initialization; the display total stays
// constant even as the cursor advances or tracker state changes mid-call.
type Sequencer struct {
	sections []Section
	current  int
	eligible []int
}

// NewSequencer computes eligibility for the configured sections and positions
// the cursor on the first eligible one. ErrNothingToCollect reports the
// go-straight-to-feedback case.
func NewSequencer(sections []Section) (*Sequencer, error) {
	s := &Sequencer{sections: sections}
	for i, sec := range sections {
		if sec.Tracker == nil {
			continue
		}
		if sec.Tracker.HasUnanswered() {
			s.eligible = append(s.eligible, i)
		}
	}
	if len(s.eligible) == 0 {
		return s, ErrNothingToCollect
	}
	s.current = s.eligible[0]
	return s, nil
}

// Current returns the section under the cursor.
func (s *Sequencer) Current() Section {
	return s.sections[s.current]
}

// Advance moves the cursor to the next eligible section. The cursor only
// moves forward; ErrExhausted means every eligible section has been visited.
func (s *Sequencer) Advance() error {
	for i, idx := range s.eligible {
		if idx == s.current {
			if i+1 >= len(s.eligible) {
				return ErrExhausted
			}
			s.current = s.eligible[i+1]
			return nil
		}
	}
	return ErrExhausted
}

// DisplayPosition reports the 1-based rank of the current section within the
// eligible set plus the constant eligible total, for "section X of Y" phrasing.
func (s *Sequencer) DisplayPosition() (int, int) {
	for i, idx := range s.eligible {
		if idx == s.current {
			return i + 1, len(s.eligible)
		}
	}
	return 0, len(s.eligible)
}

// EligibleCount returns how many sections had outstanding work at call start.
func (s *Sequencer) EligibleCount() int {
	return len(s.eligible)
}
