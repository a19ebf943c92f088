package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedAll наполняет базу минимальным рабочим набором: компания с филиалами
// и техникой, затем пользователи всех ролей. Повторный запуск безопасен.
func SeedAll(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения базы...")

	if err := seedCompanyAndFleet(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения компании и парка: %v", err)
	}
	if err := seedUsers(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения пользователей: %v", err)
	}

	log.Println("✅ Наполнение базы завершено!")
}
