package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetcare/internal/entities"
	apperrors "fleetcare/pkg/errors"
)

// UserRepositoryInterface — resolver действующего лица: по ID отдает полный
// Principal (роль, компания, филиалы, доступ к типам техники, права).
type UserRepositoryInterface interface {
	FindPrincipal(ctx context.Context, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateUser(ctx context.Context, user *entities.User) error
	SoftDeleteUser(ctx context.Context, id uint64) error
}

type UserRepository struct {
	storage *pgxpool.Pool
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &UserRepository{storage: storage}
}

const userColumns = `id, fio, email, phone_number, password, role, company_id,
	permissions, is_active, created_at, updated_at, deleted_at`

func (r *UserRepository) FindPrincipal(ctx context.Context, id uint64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	user, err := r.scanUser(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadScopes(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	user, err := r.scanUser(ctx, query, email)
	if err != nil {
		return nil, err
	}
	if err := r.loadScopes(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) scanUser(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	var u entities.User
	var permissions []byte

	err := r.storage.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Fio, &u.Email, &u.PhoneNumber, &u.Password,
		&u.Role, &u.CompanyID, &permissions, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &u.Permissions); err != nil {
			return nil, fmt.Errorf("ошибка десериализации прав пользователя: %w", err)
		}
	}

	return &u, nil
}

// loadScopes добирает области видимости: филиалы и типы техники.
func (r *UserRepository) loadScopes(ctx context.Context, u *entities.User) error {
	rows, err := r.storage.Query(ctx,
		`SELECT branch_id FROM user_branches WHERE user_id = $1`, u.ID)
	if err != nil {
		return fmt.Errorf("ошибка загрузки филиалов пользователя: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var branchID uint64
		if err := rows.Scan(&branchID); err != nil {
			return fmt.Errorf("ошибка сканирования филиала пользователя: %w", err)
		}
		u.BranchIDs = append(u.BranchIDs, branchID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	typeRows, err := r.storage.Query(ctx,
		`SELECT vehicle_type FROM user_vehicle_types WHERE user_id = $1`, u.ID)
	if err != nil {
		return fmt.Errorf("ошибка загрузки типов техники пользователя: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var vt string
		if err := typeRows.Scan(&vt); err != nil {
			return fmt.Errorf("ошибка сканирования типа техники: %w", err)
		}
		u.VehicleTypeAccess = append(u.VehicleTypeAccess, vt)
	}
	return typeRows.Err()
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *entities.User) error {
	permissions, err := json.Marshal(user.Permissions)
	if err != nil {
		return fmt.Errorf("ошибка сериализации прав пользователя: %w", err)
	}

	tag, err := r.storage.Exec(ctx, `
		UPDATE users SET fio = $1, phone_number = $2, role = $3,
			permissions = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL`,
		user.Fio, user.PhoneNumber, user.Role, permissions, user.IsActive, user.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SoftDeleteUser(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx,
		`UPDATE users SET deleted_at = NOW(), is_active = false WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
