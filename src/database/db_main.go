package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradesim/src/database/migrations"
	"tradesim/src/model"
)

// MainDB is the primary read/write database connection used by the application.
var MainDB *gorm.DB

// InitMainDB opens the main database, runs schema and data migrations and
// assigns MainDB. Call it once at startup.
func InitMainDB() error {
	config := GetConfig()

	db, err := Open(config)
	if err != nil {
		return err
	}

	// Assign to the global variable only after a successful connection.
	MainDB = db
	logrus.WithField("driver", config.Driver).Info("[database] MainDB connection established")

	if err := Migrate(MainDB); err != nil {
		return err
	}
	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Open connects with the configured driver and tunes the connection pool.
func Open(config Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(config.Driver) {
	case "postgres", "":
		dialector = postgres.Open(config.DatabaseURLMain)
	case "sqlite":
		dialector = sqlite.Open(config.DatabaseURLMain)
	default:
		return nil, &model.ValidationError{Field: "DATABASE_DRIVER", Reason: "unsupported driver " + config.Driver}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return db, nil
}

// Migrate creates the schema of every model and runs the data migrations.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Symbol{},
		&model.Tick{},
		&model.Trade{},
		&model.Order{},
		&model.OrderProfit{},
		&model.Exception{},
		&migrations.DataMigration{},
	); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations on MainDB: %w", err)
	}
	return nil
}
