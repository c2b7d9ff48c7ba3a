package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed question store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, q Question) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}

	answers, err := json.Marshal(q.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO questions
		   (id, subject_key, paper_code, number, year, season, paper_type, variant, topics, image_urls, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   topics = EXCLUDED.topics,
		   image_urls = EXCLUDED.image_urls,
		   answers = EXCLUDED.answers,
		   updated_at = now()`,
		q.ID, q.SubjectKey, q.PaperCode, q.Number, q.Year, string(q.Season),
		q.PaperType, q.Variant, q.Topics, q.ImageURLs, answers,
	)
	if err != nil {
		return fmt.Errorf("upsert question: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Question, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id, subject_key, paper_code, number, year, season, paper_type, variant,
		        topics, image_urls, answers, created_at, updated_at
		 FROM questions WHERE id = $1`,
		id,
	)

	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("question not found: %s", id)
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check question exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Search(ctx context.Context, c Criteria) ([]Question, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `SELECT id, subject_key, paper_code, number, year, season, paper_type, variant,
	                 topics, image_urls, answers, created_at, updated_at
	          FROM questions WHERE subject_key = $1`
	args := []any{c.SubjectKey}

	if len(c.Years) > 0 {
		args = append(args, c.Years)
		query += fmt.Sprintf(" AND year = ANY($%d)", len(args))
	}
	if len(c.PaperTypes) > 0 {
		args = append(args, c.PaperTypes)
		query += fmt.Sprintf(" AND paper_type = ANY($%d)", len(args))
	}
	if len(c.Seasons) > 0 {
		seasons := make([]string, len(c.Seasons))
		for i, se := range c.Seasons {
			seasons[i] = string(se)
		}
		args = append(args, seasons)
		query += fmt.Sprintf(" AND season = ANY($%d)", len(args))
	}
	if len(c.Topics) > 0 {
		args = append(args, c.Topics)
		query += fmt.Sprintf(" AND topics && $%d", len(args))
	}
	query += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) EnsureValue(ctx context.Context, subjectKey, dimension, value string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if value == "" {
		return fmt.Errorf("metadata value is required")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO subject_values (subject_key, dimension, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		subjectKey, dimension, value,
	)
	if err != nil {
		return fmt.Errorf("ensure %s value: %w", dimension, err)
	}
	return nil
}

func (s *PostgresStore) KnownValues(ctx context.Context, subjectKey, dimension string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT value FROM subject_values
		 WHERE subject_key = $1 AND dimension = $2
		 ORDER BY value ASC`,
		subjectKey, dimension,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s values: %w", dimension, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanQuestion(row pgx.Row) (*Question, error) {
	var q Question
	var season string
	var answers []byte
	if err := row.Scan(
		&q.ID, &q.SubjectKey, &q.PaperCode, &q.Number, &q.Year, &season,
		&q.PaperType, &q.Variant, &q.Topics, &q.ImageURLs, &answers,
		&q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	q.Season = Season(season)
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &q.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	return &q, nil
}
