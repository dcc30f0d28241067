// Package testing provides test utilities and database setup for testing the tracker
package testing

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDBConfig points the live-database tests at a PostgreSQL server
type TestDBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
}

// GetTestDBConfig loads test database configuration from TEST_DB_* variables
func GetTestDBConfig() *TestDBConfig {
	return &TestDBConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		SSLMode:  getEnv("TEST_DB_SSL_MODE", "disable"),
	}
}

// LiveDBAvailable reports whether a PostgreSQL server was configured for tests
func LiveDBAvailable() bool {
	return os.Getenv("TEST_DB_HOST") != ""
}

func (c *TestDBConfig) dsn(dbName string) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.SSLMode)
	if dbName != "" {
		dsn += " dbname=" + dbName
	}
	return dsn
}

func (c *TestDBConfig) open(dbName string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(c.dsn(dbName)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// TestDB is a throwaway database holding the clients and transactions tables
type TestDB struct {
	DB     *gorm.DB
	Name   string
	config *TestDBConfig
}

// SetupTestDB creates a uniquely named database and migrates the schema into it
func SetupTestDB() (*TestDB, error) {
	cfg := GetTestDBConfig()
	dbName := "pos_tracker_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	server, err := cfg.open("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	err = server.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)).Error
	closeDB(server)
	if err != nil {
		return nil, fmt.Errorf("failed to create test database %s: %w", dbName, err)
	}

	db, err := cfg.open(dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database %s: %w", dbName, err)
	}

	tdb := &TestDB{DB: db, Name: dbName, config: cfg}
	if err := db.AutoMigrate(&models.Client{}, &models.Transaction{}); err != nil {
		_ = tdb.TeardownTestDB()
		return nil, fmt.Errorf("failed to migrate test database %s: %w", dbName, err)
	}
	return tdb, nil
}

// TeardownTestDB closes the connection pool and drops the database
func (tdb *TestDB) TeardownTestDB() error {
	if tdb.DB == nil {
		return nil
	}
	closeDB(tdb.DB)

	server, err := tdb.config.open("")
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL for cleanup: %w", err)
	}
	defer closeDB(server)

	if err := server.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", tdb.Name)).Error; err != nil {
		return fmt.Errorf("failed to drop test database %s: %w", tdb.Name, err)
	}
	return nil
}

// ClearAllTables empties both tables, transactions first
func (tdb *TestDB) ClearAllTables() error {
	for _, table := range []string{"transactions", "clients"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// NewMockDB opens a gorm handle over sqlmock using the postgres dialector
func NewMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, err
	}
	return db, mock, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// TestWithDB runs testFunc against a fresh database and drops it afterwards
func TestWithDB(testFunc func(*TestDB) error) error {
	testDB, err := SetupTestDB()
	if err != nil {
		return fmt.Errorf("failed to setup test database: %w", err)
	}
	defer func() {
		if err := testDB.TeardownTestDB(); err != nil {
			logrus.WithError(err).WithField("database", testDB.Name).Warn("test database cleanup failed")
		}
	}()

	if err := testDB.ClearAllTables(); err != nil {
		return err
	}
	return testFunc(testDB)
}

// CreateTestContext creates a context for testing
func CreateTestContext() context.Context {
	return context.Background()
}
