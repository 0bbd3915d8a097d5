package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"account-service/internal/model"
	"account-service/pkg/config"
)

// InitDB opens the database connection and configures the pool. The handle
// is returned to the caller for injection; there is no package-level
// instance.
func InitDB(dbConfig *config.DBConfig) (*gorm.DB, error) {
	// Configure Postgres options
	pgConfig := postgres.Config{
		DSN:                  dbConfig.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	// Open connection
	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(dbConfig.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get generic database object SQL
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

// Migrate runs migrations for the account schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Account{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
