package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gridpool-service/internal/domain"
)

// CatalogLoader reads the question catalog from Postgres. Question rows
// are immutable at scoring time, so the read path stays on a plain pgx
// pool; option specs live in a JSONB column.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

const questionColumns = `id, event_id, type, text, points, category, position, options`

func (l *CatalogLoader) GetQuestion(ctx context.Context, questionID string) (domain.EventQuestion, error) {
	row := l.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM event_questions WHERE id = $1`, questionID)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EventQuestion{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.EventQuestion{}, fmt.Errorf("load question %s: %w", questionID, err)
	}
	return q, nil
}

func (l *CatalogLoader) ListQuestions(ctx context.Context, eventID string) ([]domain.EventQuestion, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM event_questions WHERE event_id = $1 ORDER BY position`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load questions for event %s: %w", eventID, err)
	}
	defer rows.Close()

	questions := make([]domain.EventQuestion, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.EventQuestion, error) {
	var q domain.EventQuestion
	var options []byte
	err := row.Scan(&q.ID, &q.EventID, &q.Type, &q.Text, &q.Points, &q.Category, &q.Position, &options)
	if err != nil {
		return domain.EventQuestion{}, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return domain.EventQuestion{}, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	return q, nil
}
