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

type VehicleRepositoryInterface interface {
	FindVehicle(ctx context.Context, id uint64) (*entities.Vehicle, error)
}

type VehicleRepository struct {
	storage *pgxpool.Pool
}

func NewVehicleRepository(storage *pgxpool.Pool) VehicleRepositoryInterface {
	return &VehicleRepository{storage: storage}
}

func (r *VehicleRepository) FindVehicle(ctx context.Context, id uint64) (*entities.Vehicle, error) {
	query := `
		SELECT id, company_id, branch_id, vehicle_type, plate, brand, model,
		       year, odometer, is_active, created_at, updated_at, deleted_at
		FROM vehicles
		WHERE id = $1 AND deleted_at IS NULL`

	var v entities.Vehicle
	err := r.storage.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.CompanyID, &v.BranchID, &v.VehicleType, &v.Plate,
		&v.Brand, &v.Model, &v.Year, &v.Odometer, &v.IsActive,
		&v.CreatedAt, &v.UpdatedAt, &v.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска техники: %w", err)
	}
	return &v, nil
}
