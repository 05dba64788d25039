package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
)

type integrityStore struct{}

// NewIntegrityStore returns the PostgreSQL integrity.Store. Table and column
// names come from the integrity graph, never from callers.
func NewIntegrityStore() integrity.Store {
	return &integrityStore{}
}

var _ integrity.Store = (*integrityStore)(nil)

func (s *integrityStore) Exists(ctx context.Context, kind integrity.Kind, id int64, lock integrity.Lock) (bool, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return false, err
	}

	query := `SELECT id FROM ` + kind.Table() + ` WHERE id = $1`
	switch lock {
	case integrity.LockKeyShare:
		query += ` FOR KEY SHARE`
	case integrity.LockUpdate:
		query += ` FOR UPDATE`
	}

	var found int64
	err = q.QueryRow(ctx, query, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %d: %w", kind, id, database.ClassifyError(err))
	}
	return true, nil
}

func (s *integrityStore) ChildIDs(ctx context.Context, edge integrity.Edge, parentID int64) ([]int64, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT id FROM ` + edge.Child.Table() + ` WHERE ` + pgx.Identifier{edge.Column}.Sanitize() + ` = $1 ORDER BY id`
	rows, err := q.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", edge.Child.Table(), database.ClassifyError(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", edge.Child.Table(), database.ClassifyError(err))
	}
	return ids, nil
}

func (s *integrityStore) DeleteRows(ctx context.Context, kind integrity.Kind, ids []int64) (int64, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return 0, err
	}

	result, err := q.Exec(ctx, `DELETE FROM `+kind.Table()+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", kind.Table(), database.ClassifyDeleteError(err))
	}
	return result.RowsAffected(), nil
}
