package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
)

// logOutcome logs a failed operation. Outcomes the caller is expected to
// handle stay below Error.
func logOutcome(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrValidation):
		logger.Debug(msg, fields...)
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn(msg, fields...)
	default:
		logger.Error(msg, fields...)
	}
}

// deleteEntity applies the integrity graph to (kind, id) in one transaction.
// before, if set, runs first in the same transaction.
func deleteEntity(
	ctx context.Context,
	tx database.Transactor,
	enforcer *integrity.Enforcer,
	kind integrity.Kind,
	id int64,
	before func(ctx context.Context) error,
) (*integrity.DeletePlan, error) {
	var plan *integrity.DeletePlan
	err := tx.InTx(ctx, func(ctx context.Context) error {
		if before != nil {
			if err := before(ctx); err != nil {
				return err
			}
		}
		var err error
		plan, err = enforcer.Delete(ctx, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}
