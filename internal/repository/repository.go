package repository

import (
	"context"

	"github.com/steeven-js/madinia-cyber/internal/domain"
)

// OperatorRepository persists dashboard operators.
type OperatorRepository interface {
	CreateOperator(ctx context.Context, operator *domain.Operator) error
	GetOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error)
	GetOperatorByID(ctx context.Context, id string) (*domain.Operator, error)
}
