package repositories

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
)

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func notFound(kind integrity.Kind, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, apperrors.ErrNotFound)
}

// staleOrMissing explains why a versioned UPDATE matched no row: the row is
// gone, or another writer moved its version on.
func staleOrMissing(ctx context.Context, q database.Querier, kind integrity.Kind, id, version int64) error {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+kind.Table()+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check %s %d: %w", kind, id, database.ClassifyError(err))
	}
	if !exists {
		return notFound(kind, id)
	}
	return &apperrors.VersionConflictError{Kind: string(kind), ID: id, Expected: version}
}
