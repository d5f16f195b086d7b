package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/sanitize"
)

const leadsSchema = `
	CREATE TABLE IF NOT EXISTS leads (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		phone         TEXT NOT NULL,
		monthly_bill  NUMERIC(12,2) NOT NULL,
		property_type TEXT NOT NULL,
		identity      TEXT NOT NULL,
		received_at   TIMESTAMPTZ NOT NULL
	)`

// leadRepository stores accepted leads in Postgres.
type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) ILeadRepository {
	return &leadRepository{db: db}
}

// EnsureSchema creates the leads table when it does not exist yet.
func (r *leadRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, leadsSchema); err != nil {
		return fmt.Errorf("create leads table: %w", err)
	}
	return nil
}

// Create inserts an accepted lead. Inserting the same lead twice is a no-op.
// Text columns hold the plain text of the sanitized fields, not HTML
// entities, so "Tom &amp; Jerry" is stored as "Tom & Jerry".
func (r *leadRepository) Create(ctx context.Context, lead *model.Lead) error {
	query := `
		INSERT INTO leads (id, name, phone, monthly_bill, property_type, identity, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		lead.ID,
		sanitize.Plain(lead.Submission.Name),
		sanitize.Plain(lead.Submission.Phone),
		lead.Submission.MonthlyBill,
		sanitize.Plain(string(lead.Submission.PropertyType)),
		lead.Identity,
		lead.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead %s: %w", lead.ID, err)
	}
	return nil
}
