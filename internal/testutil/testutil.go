// Package testutil provides shared test utilities.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bbernstein/lacylights-palette/internal/database/models"
	"github.com/bbernstein/lacylights-palette/internal/database/repositories"
	"github.com/bbernstein/lacylights-palette/internal/palette"
)

// TestDB holds the test database and repositories.
type TestDB struct {
	DB           *gorm.DB
	FavoriteRepo *repositories.FavoriteRepository
	SettingRepo  *repositories.SettingRepository
}

// SetupTestDB creates a migrated in-memory SQLite database. The connection
// is closed when the test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Every pooled connection would get its own empty in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{
		DB:           db,
		FavoriteRepo: repositories.NewFavoriteRepository(db),
		SettingRepo:  repositories.NewSettingRepository(db),
	}
}

// StandardStore builds the default 0/85/170/255 palette.
func StandardStore(t *testing.T) *palette.Store {
	t.Helper()
	s, err := palette.Build(palette.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to build palette: %v", err)
	}
	return s
}

// SmallStore builds a two-step (0/255) palette of 32 records.
func SmallStore(t *testing.T) *palette.Store {
	t.Helper()
	opts := palette.DefaultOptions()
	opts.Steps = []int{0, 255}
	s, err := palette.Build(opts)
	if err != nil {
		t.Fatalf("Failed to build palette: %v", err)
	}
	return s
}
