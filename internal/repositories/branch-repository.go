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

type BranchRepositoryInterface interface {
	FindBranch(ctx context.Context, id uint64) (*entities.Branch, error)
}

type BranchRepository struct {
	storage *pgxpool.Pool
}

func NewBranchRepository(storage *pgxpool.Pool) BranchRepositoryInterface {
	return &BranchRepository{storage: storage}
}

func (r *BranchRepository) FindBranch(ctx context.Context, id uint64) (*entities.Branch, error) {
	query := `
		SELECT id, company_id, name, address, is_active, created_at, updated_at, deleted_at
		FROM branches
		WHERE id = $1 AND deleted_at IS NULL`

	var b entities.Branch
	err := r.storage.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.CompanyID, &b.Name, &b.Address, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска филиала: %w", err)
	}
	return &b, nil
}
