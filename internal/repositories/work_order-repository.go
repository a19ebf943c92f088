package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetcare/internal/entities"
	apperrors "fleetcare/pkg/errors"
	"fleetcare/pkg/types"
)

type WorkOrderRepositoryInterface interface {
	GetWorkOrders(ctx context.Context, companyID uint64, branchIDs []uint64, filter types.Filter) ([]entities.WorkOrder, uint64, error)
	FindWorkOrder(ctx context.Context, id uint64) (*entities.WorkOrder, error)
	CreateWorkOrder(ctx context.Context, wo *entities.WorkOrder) (uint64, error)
	// SaveWorkOrder пишет заказ-наряд целиком со сверкой версии.
	// Если запись успела измениться — apperrors.ErrVersionConflict,
	// и вызывающая сторона обязана считать переход непримененным.
	SaveWorkOrder(ctx context.Context, wo *entities.WorkOrder) error
	HardDeleteWorkOrder(ctx context.Context, id uint64) error
	CountForDay(ctx context.Context, day time.Time) (uint64, error)
}

type WorkOrderRepository struct {
	storage *pgxpool.Pool
}

func NewWorkOrderRepository(storage *pgxpool.Pool) WorkOrderRepositoryInterface {
	return &WorkOrderRepository{storage: storage}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const workOrderColumns = `id, number, company_id, branch_id, vehicle_id, type, priority,
	status, prior_status, holding_approval_id, scheduled_date, start_date,
	completed_date, canceled_date, actual_duration_minutes, odometer,
	description, diagnosis, work_performed, services, parts, approvals,
	time_entries, costs, created_by, updated_by, is_active, version,
	created_at, updated_at, deleted_at`

func (r *WorkOrderRepository) GetWorkOrders(ctx context.Context, companyID uint64, branchIDs []uint64, filter types.Filter) ([]entities.WorkOrder, uint64, error) {
	base := psql.Select(workOrderColumns).
		From("work_orders").
		Where("deleted_at IS NULL")

	// Нулевой companyID означает выборку по всем компаниям (SYSTEM_OPERATOR).
	if companyID != 0 {
		base = base.Where(sq.Eq{"company_id": companyID})
	}

	// Видимость по филиалам: пустой срез означает отсутствие ограничения
	// (SYSTEM_OPERATOR, COMPANY_ADMIN).
	if len(branchIDs) > 0 {
		base = base.Where(sq.Eq{"branch_id": branchIDs})
	}

	for key, value := range filter.Filter {
		switch key {
		case "status", "type", "priority":
			base = base.Where(sq.Eq{key: value})
		case "branch_id", "vehicle_id":
			base = base.Where(sq.Eq{key: value})
		}
	}

	if filter.Search != "" {
		base = base.Where(sq.Or{
			sq.ILike{"number": "%" + filter.Search + "%"},
			sq.ILike{"description": "%" + filter.Search + "%"},
		})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		FromSelect(base, "wo").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчета: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета заказ-нарядов: %w", err)
	}

	query, args, err := base.
		OrderBy("scheduled_date DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заказ-нарядов: %w", err)
	}
	defer rows.Close()

	workOrders := make([]entities.WorkOrder, 0)
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования заказ-наряда в списке: %w", err)
		}
		workOrders = append(workOrders, *wo)
	}

	return workOrders, total, rows.Err()
}

func (r *WorkOrderRepository) FindWorkOrder(ctx context.Context, id uint64) (*entities.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1 AND deleted_at IS NULL`

	rows, err := r.storage.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заказ-наряда: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, apperrors.ErrNotFound
	}
	return scanWorkOrder(rows)
}

func (r *WorkOrderRepository) CreateWorkOrder(ctx context.Context, wo *entities.WorkOrder) (uint64, error) {
	services, parts, approvals, timeEntries, costs, err := marshalCollections(wo)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO work_orders (
			number, company_id, branch_id, vehicle_id, type, priority, status,
			scheduled_date, odometer, description, diagnosis, work_performed,
			services, parts, approvals, time_entries, costs,
			created_by, is_active, version, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,1,NOW())
		RETURNING id`

	var id uint64
	err = r.storage.QueryRow(ctx, query,
		wo.Number, wo.CompanyID, wo.BranchID, wo.VehicleID,
		wo.Type, wo.Priority, wo.Status,
		wo.ScheduledDate, wo.Odometer, wo.Description, wo.Diagnosis, wo.WorkPerformed,
		services, parts, approvals, timeEntries, costs,
		wo.CreatedBy, wo.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заказ-наряда: %w", err)
	}

	wo.ID = id
	wo.Version = 1
	return id, nil
}

func (r *WorkOrderRepository) SaveWorkOrder(ctx context.Context, wo *entities.WorkOrder) error {
	services, parts, approvals, timeEntries, costs, err := marshalCollections(wo)
	if err != nil {
		return err
	}

	query := `
		UPDATE work_orders SET
			priority = $1, status = $2, prior_status = $3, holding_approval_id = $4,
			scheduled_date = $5, start_date = $6, completed_date = $7, canceled_date = $8,
			actual_duration_minutes = $9, odometer = $10,
			description = $11, diagnosis = $12, work_performed = $13,
			services = $14, parts = $15, approvals = $16, time_entries = $17, costs = $18,
			updated_by = $19, is_active = $20, deleted_at = $21,
			version = version + 1, updated_at = NOW()
		WHERE id = $22 AND version = $23 AND (deleted_at IS NULL OR $21 IS NOT NULL)`

	tag, err := r.storage.Exec(ctx, query,
		wo.Priority, wo.Status, wo.PriorStatus, wo.HoldingApprovalID,
		wo.ScheduledDate, wo.StartDate, wo.CompletedDate, wo.CanceledDate,
		wo.ActualDurationMinutes, wo.Odometer,
		wo.Description, wo.Diagnosis, wo.WorkPerformed,
		services, parts, approvals, timeEntries, costs,
		wo.UpdatedBy, wo.IsActive, wo.DeletedAt,
		wo.ID, wo.Version,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения заказ-наряда: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Либо запись исчезла, либо версия устарела.
		return apperrors.ErrVersionConflict
	}

	wo.Version++
	return nil
}

func (r *WorkOrderRepository) HardDeleteWorkOrder(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, `DELETE FROM work_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления заказ-наряда: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountForDay — сколько заказ-нарядов создано за календарные сутки.
// Используется для предложения суффикса номера; уникальность номера
// гарантирует ограничение в БД, не этот счетчик.
func (r *WorkOrderRepository) CountForDay(ctx context.Context, day time.Time) (uint64, error) {
	var count uint64
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM work_orders WHERE created_at::date = $1::date`,
		day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета заказ-нарядов за день: %w", err)
	}
	return count, nil
}

func marshalCollections(wo *entities.WorkOrder) (services, parts, approvals, timeEntries, costs []byte, err error) {
	if services, err = json.Marshal(wo.Services); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("ошибка сериализации работ: %w", err)
	}
	if parts, err = json.Marshal(wo.Parts); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("ошибка сериализации запчастей: %w", err)
	}
	if approvals, err = json.Marshal(wo.Approvals); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("ошибка сериализации согласований: %w", err)
	}
	if timeEntries, err = json.Marshal(wo.TimeEntries); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("ошибка сериализации отметок времени: %w", err)
	}
	if costs, err = json.Marshal(wo.Costs); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("ошибка сериализации стоимости: %w", err)
	}
	return services, parts, approvals, timeEntries, costs, nil
}

func scanWorkOrder(rows pgx.Rows) (*entities.WorkOrder, error) {
	var wo entities.WorkOrder
	var services, parts, approvals, timeEntries, costs []byte

	err := rows.Scan(
		&wo.ID, &wo.Number, &wo.CompanyID, &wo.BranchID, &wo.VehicleID,
		&wo.Type, &wo.Priority, &wo.Status, &wo.PriorStatus, &wo.HoldingApprovalID,
		&wo.ScheduledDate, &wo.StartDate, &wo.CompletedDate, &wo.CanceledDate,
		&wo.ActualDurationMinutes, &wo.Odometer,
		&wo.Description, &wo.Diagnosis, &wo.WorkPerformed,
		&services, &parts, &approvals, &timeEntries, &costs,
		&wo.CreatedBy, &wo.UpdatedBy, &wo.IsActive, &wo.Version,
		&wo.CreatedAt, &wo.UpdatedAt, &wo.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(services, &wo.Services); err != nil {
		return nil, fmt.Errorf("ошибка десериализации работ: %w", err)
	}
	if err := json.Unmarshal(parts, &wo.Parts); err != nil {
		return nil, fmt.Errorf("ошибка десериализации запчастей: %w", err)
	}
	if err := json.Unmarshal(approvals, &wo.Approvals); err != nil {
		return nil, fmt.Errorf("ошибка десериализации согласований: %w", err)
	}
	if err := json.Unmarshal(timeEntries, &wo.TimeEntries); err != nil {
		return nil, fmt.Errorf("ошибка десериализации отметок времени: %w", err)
	}
	if err := json.Unmarshal(costs, &wo.Costs); err != nil {
		return nil, fmt.Errorf("ошибка десериализации стоимости: %w", err)
	}

	return &wo, nil
}
