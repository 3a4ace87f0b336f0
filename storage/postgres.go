package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"jduel/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

// RandomQuestions implements the game.QuestionSource interface. It draws up
// to count random questions whose difficulty falls inside [minDifficulty,
// maxDifficulty].
func (pgr *PostgresRepo) RandomQuestions(ctx context.Context, minDifficulty, maxDifficulty, count int) ([]domain.Question, error) {
	query := `SELECT prompt, answer, category, wrong_answers
		FROM questions
		WHERE difficulty BETWEEN $1 AND $2
		ORDER BY RANDOM() LIMIT $3`

	rows, err := pgr.pool.Query(ctx, query, minDifficulty, maxDifficulty, count)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, count)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.Prompt, &q.Answer, &q.Category, &q.WrongAnswers); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	return questions, nil
}

func (pgr *PostgresRepo) GetPool() *pgxpool.Pool {
	return pgr.pool
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}
