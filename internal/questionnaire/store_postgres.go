package questionnaire

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists answers in postgres via a shared pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initAnswerSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initAnswerSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS questionnaire_answers (
			call_id TEXT NOT NULL,
			section_id TEXT NOT NULL,
			link_id TEXT NOT NULL,
			value_text TEXT NOT NULL DEFAULT '',
			value_int BIGINT NULL,
			answered_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (call_id, link_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_answers_call ON questionnaire_answers (call_id, answered_at);`,
		`CREATE TABLE IF NOT EXISTS questionnaire_sections (
			call_id TEXT NOT NULL,
			section_id TEXT NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (call_id, section_id)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init answer schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveAnswer(ctx context.Context, callID, sectionID, linkID string, value Answer) error {
	var valueInt *int64
	if value.Kind == AnswerInt {
		n := value.Int
		valueInt = &n
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO questionnaire_answers (call_id, section_id, link_id, value_text, value_int, answered_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (call_id, link_id) DO UPDATE SET
			section_id=EXCLUDED.section_id,
			value_text=EXCLUDED.value_text,
			value_int=EXCLUDED.value_int,
			answered_at=EXCLUDED.answered_at`,
		callID, sectionID, linkID, value.Text, valueInt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkSectionComplete(ctx context.Context, callID, sectionID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO questionnaire_sections (call_id, section_id, completed_at)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (call_id, section_id) DO UPDATE SET completed_at=EXCLUDED.completed_at`,
		callID, sectionID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark section complete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Answers(ctx context.Context, callID string) ([]StoredAnswer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT call_id, section_id, link_id, value_text, value_int, answered_at
		   FROM questionnaire_answers WHERE call_id=$1 ORDER BY answered_at ASC`,
		callID,
	)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	out := make([]StoredAnswer, 0, 8)
	for rows.Next() {
		var a StoredAnswer
		if err := rows.Scan(&a.CallID, &a.SectionID, &a.LinkID, &a.ValueText, &a.ValueInt, &a.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
