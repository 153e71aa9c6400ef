package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"activation/internal/config"
	"activation/internal/domain"
	"activation/internal/metrics"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var db *gorm.DB

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 10 * time.Minute
	pingTimeout     = 5 * time.Second
	// _time_format=sqlite stores timestamps in a layout SQLite date functions parse.
	sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
)

// Init initializes the global database connection and migrates the schema
func Init() error {
	cfg := config.Get()

	log.SetPrefix("[DB] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	defer log.SetPrefix("[API] ")

	conn, err := Open(&cfg.Database)
	if err != nil {
		return err
	}
	db = conn

	if err := ping(db); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

// Open connects to PostgreSQL or SQLite depending on the configured URL
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if cfg.IsPostgres() {
		log.Println("Connecting to PostgreSQL database...")
		dialector = postgres.Open(cfg.GetPostgresDSN())
	} else {
		log.Println("Connecting to SQLite database...")
		dbPath := cfg.GetSQLitePath()
		sqlDB, err := sql.Open("sqlite", sqliteDSN(dbPath))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		// SQLite allows a single writer; serialise through one connection.
		sqlDB.SetMaxOpenConns(1)
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        dbPath,
			Conn:       sqlDB,
		}
	}

	// Never log SQL: queries carry phone numbers and emails.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	conn, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool (PostgreSQL only)
	if cfg.IsPostgres() {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}

		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

		log.Printf("Connection pool configured: maxOpen=%d, maxIdle=%d", maxOpenConns, maxIdleConns)
	}

	return conn, nil
}

// Migrate creates or updates the application tables
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&domain.User{},
		&domain.Lead{},
		&domain.LeadFile{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?" + sqlitePragmas
}

func ping(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	if db == nil {
		log.Fatal("Database not initialized. Call database.Init() first.")
	}
	return db
}

// HealthCheck performs a database health check and refreshes pool gauges
func HealthCheck() error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	if stats, err := GetStats(); err == nil {
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}
	return ping(db)
}

// GetStats returns connection pool statistics for the global connection.
func GetStats() (*sql.DBStats, error) {
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	stats := sqlDB.Stats()
	return &stats, nil
}
