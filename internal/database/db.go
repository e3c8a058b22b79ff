package database

import (
	"fmt"

	"restoran-pos/internal/config"
	"restoran-pos/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Init(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true, // unique ihlali -> gorm.ErrDuplicatedKey
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	if err := Migrate(db, cfg.StoreDriver == config.StoreDriverPostgres); err != nil {
		return nil, err
	}

	log.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
	return db, nil
}

// Migrate kimlik, şube ve audit tablolarını her zaman; vardiya ve sipariş
// tablolarını sadece Postgres depo seçiliyse oluşturur.
func Migrate(db *gorm.DB, withRegister bool) error {
	tables := []any{
		&models.Branch{},
		&models.User{},
		&models.AuditLog{},
	}
	if withRegister {
		tables = append(tables,
			&models.Shift{},
			&models.DayClose{},
			&models.Order{},
			&models.OrderItem{},
			&models.OrderPayment{},
			&models.InvoiceSequence{},
		)
	}

	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}

	if !withRegister {
		return nil
	}

	// Şube başına en fazla bir açık vardiya
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_open_per_branch
		ON shifts(branch_id) WHERE status = 'open'`).Error; err != nil {
		return fmt.Errorf("açık vardiya index'i oluşturulamadı: %w", err)
	}
	// Vardiya numarası şube içinde tekil
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_branch_shift_no
		ON shifts(branch_id, shift_no)`).Error; err != nil {
		return fmt.Errorf("vardiya numarası index'i oluşturulamadı: %w", err)
	}
	return nil
}
