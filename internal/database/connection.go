package database

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver          string `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string `env:"DB_HOST"`
	Port            string `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER"`
	DBName          string `env:"DB_NAME"`
	Password        string `env:"DB_PASSWORD"`
	SSLMode         string `env:"DB_SSL_MODE" envDefault:"disable"`
	Path            string `env:"DB_PATH" envDefault:"dmarcstore.db"`
	MaxConn         int    `env:"DB_MAX_CONN" envDefault:"20"`
	MaxIdleConn     int    `env:"DB_MAX_IDLE_CONN" envDefault:"5"`
	ConnMaxLifetime int    `env:"DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"DB_LOG_LEVEL" envDefault:"WARN"`
}

// NewConnection opens the configured engine. TranslateError is on so that
// uniqueness violations and lookup misses arrive as gorm sentinel errors on
// both drivers instead of driver-specific ones.
func NewConnection(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	dialector, err := openDialector(dbConfig)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(dbConfig.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return db, nil
}

func openDialector(dbConfig *DatabaseConfig) (gorm.Dialector, error) {
	switch dbConfig.Driver {
	case DriverSQLite:
		if dbConfig.Path == "" {
			return nil, fmt.Errorf("sqlite database path is empty")
		}
		return sqlite.Open(dbConfig.Path), nil

	case DriverPostgres:
		if err := validatePostgresConfig(dbConfig); err != nil {
			return nil, err
		}
		portInt, err := strconv.Atoi(dbConfig.Port)
		if err != nil {
			return nil, fmt.Errorf("invalid port number: %w", err)
		}
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dbConfig.Host, portInt, dbConfig.User, dbConfig.Password, dbConfig.DBName, dbConfig.SSLMode,
		)
		return postgres.Open(dsn), nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", dbConfig.Driver)
}

func validatePostgresConfig(config *DatabaseConfig) error {
	switch {
	case config.Host == "":
		return fmt.Errorf("database host config is empty")
	case config.Port == "":
		return fmt.Errorf("database port config is empty")
	case config.User == "":
		return fmt.Errorf("database user config is empty")
	case config.DBName == "":
		return fmt.Errorf("database name config is empty")
	}
	return nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "INFO":
		return logger.Info
	case "ERROR":
		return logger.Error
	case "SILENT":
		return logger.Silent
	}
	return logger.Warn
}
