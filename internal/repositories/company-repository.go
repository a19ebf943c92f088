package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetcare/internal/entities"
	apperrors "fleetcare/pkg/errors"
)

type CompanyRepositoryInterface interface {
	FindCompany(ctx context.Context, id uint64) (*entities.Company, error)
}

type CompanyRepository struct {
	storage *pgxpool.Pool
}

func NewCompanyRepository(storage *pgxpool.Pool) CompanyRepositoryInterface {
	return &CompanyRepository{storage: storage}
}

func (r *CompanyRepository) FindCompany(ctx context.Context, id uint64) (*entities.Company, error) {
	query := `
		SELECT id, name, tax_id, is_active, created_at, updated_at, deleted_at
		FROM companies
		WHERE id = $1 AND deleted_at IS NULL`

	var c entities.Company
	err := r.storage.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.TaxID, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска компании: %w", err)
	}
	return &c, nil
}
