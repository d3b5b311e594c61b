package engine

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"barkeep/models"
)

func newEngineTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:engine-test-%d?mode=memory&cache=shared&_busy_timeout=5000", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// A single connection serializes concurrent writers; in-memory
	// shared-cache sqlite returns "database is locked" otherwise.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.StockItem{},
		&models.Drink{},
		&models.DrinkIngredient{},
		&models.ShoppingListItem{},
		&models.GuestOrder{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func intPtr(v int) *int {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}
