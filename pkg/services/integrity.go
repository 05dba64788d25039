package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
)

// IntegrityService exposes the delete rules and what a delete would do.
type IntegrityService interface {
	Edges() []integrity.Edge
	// Preview plans deleting (kind, id) without deleting anything.
	Preview(ctx context.Context, kind integrity.Kind, id int64) (*integrity.DeletePlan, error)
}

type integrityService struct {
	tx       database.Transactor
	enforcer *integrity.Enforcer
	logger   *zap.Logger
}

// NewIntegrityService creates a new IntegrityService.
func NewIntegrityService(tx database.Transactor, enforcer *integrity.Enforcer, logger *zap.Logger) IntegrityService {
	return &integrityService{
		tx:       tx,
		enforcer: enforcer,
		logger:   logger.Named("integrity-service"),
	}
}

var _ IntegrityService = (*integrityService)(nil)

func (s *integrityService) Edges() []integrity.Edge {
	return s.enforcer.Graph().Edges()
}

func (s *integrityService) Preview(ctx context.Context, kind integrity.Kind, id int64) (*integrity.DeletePlan, error) {
	var plan *integrity.DeletePlan
	// Planning locks the root row; the transaction releases it.
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		plan, err = s.enforcer.Plan(ctx, kind, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to preview delete", err, zap.String("kind", string(kind)), zap.Int64("id", id))
		return nil, err
	}
	return plan, nil
}
