package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// seedCompanyAndFleet создает демонстрационную компанию с двумя филиалами
// и небольшим парком техники разных типов.
func seedCompanyAndFleet(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание компании и парка техники...")

	var companyID uint64
	err := db.QueryRow(ctx, `SELECT id FROM companies WHERE tax_id = $1`, "040012345").Scan(&companyID)
	if err != nil {
		err = db.QueryRow(ctx, `
			INSERT INTO companies (name, tax_id, is_active, created_at)
			VALUES ('ООО "Транспорт Сервис"', '040012345', true, NOW())
			RETURNING id`).Scan(&companyID)
		if err != nil {
			return fmt.Errorf("не удалось создать компанию: %w", err)
		}
	}

	branches := []struct {
		name    string
		address string
	}{
		{"Центральная база", "ул. Промышленная, 12"},
		{"Северный филиал", "Северное шоссе, 48"},
	}

	branchIDs := make([]uint64, 0, len(branches))
	for _, b := range branches {
		var branchID uint64
		err := db.QueryRow(ctx,
			`SELECT id FROM branches WHERE company_id = $1 AND name = $2`, companyID, b.name).Scan(&branchID)
		if err != nil {
			err = db.QueryRow(ctx, `
				INSERT INTO branches (company_id, name, address, is_active, created_at)
				VALUES ($1, $2, $3, true, NOW())
				RETURNING id`, companyID, b.name, b.address).Scan(&branchID)
			if err != nil {
				return fmt.Errorf("не удалось создать филиал %q: %w", b.name, err)
			}
		}
		branchIDs = append(branchIDs, branchID)
	}

	vehicles := []struct {
		branchIdx   int
		vehicleType string
		plate       string
		brand       string
		model       string
		year        int
		odometer    int64
	}{
		{0, "TRUCK", "А123ВС 01", "KamAZ", "65115", 2019, 182_000},
		{0, "VAN", "В456ЕК 01", "GAZ", "Gazelle Next", 2021, 74_500},
		{1, "TRUCK", "С789МН 01", "MAZ", "5440", 2018, 240_300},
		{1, "EXCAVATOR", "Е012ТУ 01", "Hitachi", "ZX200", 2020, 8_900},
	}

	for _, v := range vehicles {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM vehicles WHERE plate = $1)`, v.plate).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки техники %q: %w", v.plate, err)
		}
		if exists {
			continue
		}

		_, err := db.Exec(ctx, `
			INSERT INTO vehicles (company_id, branch_id, vehicle_type, plate, brand, model, year, odometer, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, NOW())`,
			companyID, branchIDs[v.branchIdx], v.vehicleType, v.plate, v.brand, v.model, v.year, v.odometer,
		)
		if err != nil {
			return fmt.Errorf("не удалось создать технику %q: %w", v.plate, err)
		}
	}

	return nil
}
