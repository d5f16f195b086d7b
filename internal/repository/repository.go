package repository

import (
	"context"
	"database/sql"

	"github.com/suar-net/leadintake/internal/model"
)

type ILeadRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, lead *model.Lead) error
}

type Repository struct {
	lead ILeadRepository
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		lead: NewLeadRepository(db),
	}
}

func (r *Repository) Lead() ILeadRepository {
	return r.lead
}
