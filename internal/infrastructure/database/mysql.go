package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/model"
)

var DB *gorm.DB

func InitMySQL(cfg *config.MySQLConfig, log *logrus.Logger) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("error conectando a MySQL: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("error obteniendo el pool de conexiones: %v", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		log.Fatalf("error migrando el esquema: %v", err)
	}

	DB = db
	log.Info("conexión a MySQL establecida")
	return db
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Platform{},
		&model.Business{},
		&model.User{},
		&model.Client{},
		&model.Account{},
		&model.Profile{},
		&model.InventoryStock{},
		&model.InventoryMovement{},
		&model.OutboxMessage{},
	)
}
