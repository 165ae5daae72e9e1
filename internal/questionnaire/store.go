package questionnaire

import (
	"context"
	"strings"
	"time"
)

// StoredAnswer is one persisted questionnaire answer.
type StoredAnswer struct {
	CallID     string
	SectionID  string
	LinkID     string
	ValueText  string
	ValueInt   *int64
	AnsweredAt time.Time
}

// Store persists questionnaire answers and section completion.
type Store interface {
	SaveAnswer(ctx context.Context, callID, sectionID, linkID string, value Answer) error
	MarkSectionComplete(ctx context.Context, callID, sectionID string) error
	Answers(ctx context.Context, callID string) ([]StoredAnswer, error)
	Close()
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
