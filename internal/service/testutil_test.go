package service

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/infrastructure/database"
	"github.com/Josephquito/back-streaming/internal/model"
)

var dbSeq int64

type testEnv struct {
	db  *gorm.DB
	rdb *redis.Client
	cfg *config.Config
	log *logrus.Logger
}

// newTestEnv runs the service stack against an in-memory sqlite database and
// a miniredis instance, so the lock and transaction paths are exercised for
// real without external processes.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("abriendo sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("obteniendo *sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrando esquema: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{InventoryMovement: "inventario.movimientos"},
		},
		Auth: config.AuthConfig{
			JWTSecret:     "secreto-de-prueba",
			TokenTTLHours: 1,
		},
		Business: config.BusinessConfig{MaxRetryCount: 3},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	return &testEnv{db: db, rdb: rdb, cfg: cfg, log: log}
}

func (e *testEnv) seedBusiness(t *testing.T, name string) *model.Business {
	t.Helper()
	business := &model.Business{Name: name}
	if err := e.db.Create(business).Error; err != nil {
		t.Fatalf("creando negocio: %v", err)
	}
	return business
}

func (e *testEnv) seedPlatform(t *testing.T, name string) *model.Platform {
	t.Helper()
	platform := &model.Platform{Name: name}
	if err := e.db.Create(platform).Error; err != nil {
		t.Fatalf("creando plataforma: %v", err)
	}
	return platform
}

func (e *testEnv) seedClient(t *testing.T, businessID int64, name string) *model.Client {
	t.Helper()
	client := &model.Client{BusinessID: businessID, Name: name}
	if err := e.db.Create(client).Error; err != nil {
		t.Fatalf("creando cliente: %v", err)
	}
	return client
}

func (e *testEnv) seedUser(t *testing.T, businessID int64, email, role string) *model.User {
	t.Helper()
	user := &model.User{
		BusinessID:   businessID,
		Name:         "Usuario de prueba",
		Email:        email,
		PasswordHash: "x",
		Role:         role,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("creando usuario: %v", err)
	}
	return user
}

func identityFor(user *model.User) Identity {
	return Identity{UserID: user.ID, BusinessID: user.BusinessID, Role: user.Role}
}

func (e *testEnv) stockFor(t *testing.T, platformID, businessID int64) *model.InventoryStock {
	t.Helper()
	var stock model.InventoryStock
	err := e.db.Where("platform_id = ? AND business_id = ?", platformID, businessID).First(&stock).Error
	if err != nil {
		t.Fatalf("leyendo agregado de inventario: %v", err)
	}
	return &stock
}

func (e *testEnv) movementCount(t *testing.T, businessID int64) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&model.InventoryMovement{}).Where("business_id = ?", businessID).Count(&count).Error; err != nil {
		t.Fatalf("contando movimientos: %v", err)
	}
	return count
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
