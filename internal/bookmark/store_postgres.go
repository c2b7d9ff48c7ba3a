package bookmark

import (
	"context"
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

// NewPostgresStore creates a PostgreSQL-backed bookmark store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateList(ctx context.Context, l List) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookmark_lists (public_id, owner_id, name, is_public, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.OwnerID, l.Name, l.Public, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetList(ctx context.Context, id string) (*List, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var l List
	err := s.pool.QueryRow(ctx,
		`SELECT public_id, owner_id, name, is_public, created_at
		 FROM bookmark_lists WHERE public_id = $1`,
		id,
	).Scan(&l.ID, &l.OwnerID, &l.Name, &l.Public, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get list: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT question_id, added_at FROM bookmark_items
		 WHERE list_id = $1 ORDER BY added_at DESC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	l.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.QuestionID, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		l.Items = append(l.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) DeleteList(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM bookmark_lists WHERE public_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListsForOwner(ctx context.Context, ownerID string) ([]List, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT public_id, owner_id, name, is_public, created_at
		 FROM bookmark_lists WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	out := []List{}
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Public, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountLists(ctx context.Context, ownerID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM bookmark_lists WHERE owner_id = $1`, ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count lists: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) PutItem(ctx context.Context, listID, questionID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookmark_items (list_id, question_id, added_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (list_id, question_id) DO UPDATE SET added_at = EXCLUDED.added_at`,
		listID, questionID, at,
	)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveItem(ctx context.Context, listID, questionID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`DELETE FROM bookmark_items WHERE list_id = $1 AND question_id = $2`,
		listID, questionID,
	)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}

// PostgresFinishedStore is a PostgreSQL-backed FinishedStore implementation.
type PostgresFinishedStore struct {
	pool *pgxpool.Pool
}

// NewPostgresFinishedStore creates a PostgreSQL-backed finished-question
// store.
func NewPostgresFinishedStore(pool *pgxpool.Pool) (*PostgresFinishedStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresFinishedStore{pool: pool}, nil
}

func (s *PostgresFinishedStore) Toggle(ctx context.Context, userID, questionID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM finished_questions WHERE user_id = $1 AND question_id = $2`,
		userID, questionID,
	)
	if err != nil {
		return false, fmt.Errorf("toggle finished: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO finished_questions (user_id, question_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		userID, questionID,
	)
	if err != nil {
		return false, fmt.Errorf("mark finished: %w", err)
	}
	return true, nil
}

func (s *PostgresFinishedStore) All(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT question_id FROM finished_questions
		 WHERE user_id = $1 ORDER BY question_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query finished: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan finished: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
