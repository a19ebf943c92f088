package seeders

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"fleetcare/internal/authz"
	"fleetcare/internal/entities"
	"fleetcare/pkg/utils"
)

// seedUsers создает по одному пользователю на каждую роль. Пароль равен
// email до собаки, поменять при первом входе. SYSTEM_OPERATOR без компании.
func seedUsers(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание пользователей...")

	var companyID uint64
	if err := db.QueryRow(ctx, `SELECT id FROM companies WHERE tax_id = $1`, "040012345").Scan(&companyID); err != nil {
		return fmt.Errorf("компания для пользователей не найдена: %w", err)
	}

	var centralBranchID, northBranchID uint64
	if err := db.QueryRow(ctx,
		`SELECT id FROM branches WHERE company_id = $1 AND name = 'Центральная база'`, companyID).Scan(&centralBranchID); err != nil {
		return fmt.Errorf("не найден филиал 'Центральная база': %w", err)
	}
	if err := db.QueryRow(ctx,
		`SELECT id FROM branches WHERE company_id = $1 AND name = 'Северный филиал'`, companyID).Scan(&northBranchID); err != nil {
		return fmt.Errorf("не найден филиал 'Северный филиал': %w", err)
	}

	users := []struct {
		fio          string
		email        string
		phone        string
		role         entities.Role
		withCompany  bool
		branchIDs    []uint64
		vehicleTypes []string
	}{
		{"Системный оператор", "sysop@fleetcare.local", "992900000001", entities.RoleSystemOperator, false, nil, nil},
		{"Администратор компании", "admin@fleetcare.local", "992900000002", entities.RoleCompanyAdmin, true, nil, nil},
		{"Менеджер центральной базы", "manager@fleetcare.local", "992900000003", entities.RoleBranchManager, true, []uint64{centralBranchID}, nil},
		{"Механик по грузовикам", "mechanic@fleetcare.local", "992900000004", entities.RoleMechanic, true, []uint64{centralBranchID, northBranchID}, []string{"TRUCK"}},
		{"Оператор", "operator@fleetcare.local", "992900000005", entities.RoleOperator, true, []uint64{centralBranchID}, nil},
		{"Наблюдатель", "viewer@fleetcare.local", "992900000006", entities.RoleViewer, true, nil, nil},
	}

	for _, u := range users {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, u.email).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки пользователя %q: %w", u.email, err)
		}
		if exists {
			log.Printf("    - Пользователь %s уже существует. Пропускаем.", u.email)
			continue
		}

		password, err := utils.HashPassword("change-me")
		if err != nil {
			return fmt.Errorf("не удалось захэшировать пароль: %w", err)
		}

		permissions, err := json.Marshal(authz.RolePreset(u.role))
		if err != nil {
			return fmt.Errorf("не удалось сериализовать права роли %s: %w", u.role, err)
		}

		var cID interface{}
		if u.withCompany {
			cID = companyID
		}

		var userID uint64
		err = db.QueryRow(ctx, `
			INSERT INTO users (fio, email, phone_number, password, role, company_id, permissions, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, NOW())
			RETURNING id`,
			u.fio, u.email, u.phone, password, u.role, cID, permissions,
		).Scan(&userID)
		if err != nil {
			return fmt.Errorf("не удалось создать пользователя %q: %w", u.email, err)
		}

		for _, branchID := range u.branchIDs {
			if _, err := db.Exec(ctx,
				`INSERT INTO user_branches (user_id, branch_id) VALUES ($1, $2)`, userID, branchID); err != nil {
				return fmt.Errorf("не удалось привязать филиал к %q: %w", u.email, err)
			}
		}
		for _, vt := range u.vehicleTypes {
			if _, err := db.Exec(ctx,
				`INSERT INTO user_vehicle_types (user_id, vehicle_type) VALUES ($1, $2)`, userID, vt); err != nil {
				return fmt.Errorf("не удалось привязать тип техники к %q: %w", u.email, err)
			}
		}
	}

	return nil
}
