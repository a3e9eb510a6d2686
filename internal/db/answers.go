package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// ErrAnswerNotFound is returned when feedback targets an unknown answer.
var ErrAnswerNotFound = errors.New("answer not found")

// DefaultListLimit is the number of answers returned by ListAnswers when no limit is given.
const DefaultListLimit = 50

// SaveAnswer stores a result with its context and returns the new answer ID.
func (db *DB) SaveAnswer(ctx context.Context, result *types.Result) (uuid.UUID, error) {
	sources := result.Sources
	if sources == nil {
		sources = []types.Source{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal sources: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO answers (question, query, answer, score, span_start, span_end,
		                      model, tokenizer, context, sources)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		string(result.Question), string(result.Query), string(result.Answer),
		result.ExtraData.Score, result.ExtraData.Start, result.ExtraData.End,
		result.ExtraData.Model, result.ExtraData.Tokenizer, string(result.Context), sourcesJSON,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save answer: %w", err)
	}
	return id, nil
}

const answerColumns = `id, question, query, answer, score, span_start, span_end,
	model, tokenizer, context, sources, created_at`

func scanAnswer(row pgx.Row) (*AnswerRecord, error) {
	var a AnswerRecord
	var sourcesJSON []byte
	err := row.Scan(&a.ID, &a.Question, &a.Query, &a.Answer,
		&a.ExtraData.Score, &a.ExtraData.Start, &a.ExtraData.End,
		&a.ExtraData.Model, &a.ExtraData.Tokenizer, &a.Context, &sourcesJSON, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &a.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
	}
	return &a, nil
}

// GetAnswer retrieves a stored answer by ID
func (db *DB) GetAnswer(ctx context.Context, id uuid.UUID) (*AnswerRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE id = $1`, id)
	a, err := scanAnswer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

// ListAnswers retrieves the most recent answers
func (db *DB) ListAnswers(ctx context.Context, limit int) ([]AnswerRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+answerColumns+` FROM answers ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := make([]AnswerRecord, 0)
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// SaveFeedback records whether an answer was helpful.
func (db *DB) SaveFeedback(ctx context.Context, answerID uuid.UUID, helpful bool, comment string) (*Feedback, error) {
	f := Feedback{AnswerID: answerID, Helpful: helpful, Comment: stringPtr(comment)}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO feedback (answer_id, helpful, comment)
		 SELECT id, $2, $3 FROM answers WHERE id = $1
		 RETURNING id, created_at`,
		answerID, helpful, f.Comment,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return &f, nil
}

// GetFeedbackSummary counts helpful and unhelpful feedback for an answer.
func (db *DB) GetFeedbackSummary(ctx context.Context, answerID uuid.UUID) (*FeedbackSummary, error) {
	var s FeedbackSummary
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE helpful), COUNT(*) FILTER (WHERE NOT helpful)
		 FROM feedback WHERE answer_id = $1`,
		answerID,
	).Scan(&s.Helpful, &s.Unhelpful)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize feedback: %w", err)
	}
	return &s, nil
}
