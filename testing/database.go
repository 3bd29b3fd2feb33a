// Package testing provides database setup and fixtures for integration tests
package testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/lib/pq" // PostgreSQL driver for database/sql
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDBConfig holds configuration for test database connections
type TestDBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
}

// GetTestDBConfig loads test database configuration from environment variables
func GetTestDBConfig() *TestDBConfig {
	return &TestDBConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		SSLMode:  getEnv("TEST_DB_SSL_MODE", "disable"),
	}
}

// Available reports whether integration tests were given a database to run against
func Available() bool {
	return os.Getenv("TEST_DB_HOST") != ""
}

func (c *TestDBConfig) serverDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=postgres sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.SSLMode)
}

func (c *TestDBConfig) databaseDSN(name string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, name, c.SSLMode)
}

// TestDB represents a throwaway database with the full schema applied
type TestDB struct {
	DB     *gorm.DB
	Name   string
	config *TestDBConfig
}

// SetupTestDB creates a uniquely named database, migrates it and seeds default settings
func SetupTestDB() (*TestDB, error) {
	config := GetTestDBConfig()
	dbName := fmt.Sprintf("maskan_test_%d_%d", time.Now().Unix(), rand.Intn(10000))

	admin, err := sql.Open("postgres", config.serverDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName)); err != nil {
		return nil, fmt.Errorf("failed to create test database %s: %w", dbName, err)
	}

	testDB, err := gorm.Open(postgres.Open(config.databaseDSN(dbName)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database %s: %w", dbName, err)
	}

	tdb := &TestDB{DB: testDB, Name: dbName, config: config}

	if err := testDB.AutoMigrate(models.AllModels()...); err != nil {
		_ = tdb.TeardownTestDB()
		return nil, fmt.Errorf("failed to migrate test database %s: %w", dbName, err)
	}
	if err := repository.NewSystemSettingRepository(testDB).SeedDefaults(context.Background()); err != nil {
		_ = tdb.TeardownTestDB()
		return nil, fmt.Errorf("failed to seed settings on %s: %w", dbName, err)
	}

	return tdb, nil
}

// TeardownTestDB drops the test database and closes connections
func (tdb *TestDB) TeardownTestDB() error {
	if tdb.DB == nil {
		return nil
	}

	if sqlDB, err := tdb.DB.DB(); err == nil {
		sqlDB.Close()
	}

	admin, err := sql.Open("postgres", tdb.config.serverDSN())
	if err != nil {
		log.Printf("Warning: failed to connect to PostgreSQL for cleanup: %v", err)
		return err
	}
	defer admin.Close()

	if _, err := admin.Exec(
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		tdb.Name,
	); err != nil {
		log.Printf("Warning: failed to terminate connections to test database %s: %v", tdb.Name, err)
	}

	if _, err := admin.Exec("DROP DATABASE IF EXISTS " + pq.QuoteIdentifier(tdb.Name)); err != nil {
		log.Printf("Warning: failed to drop test database %s: %v", tdb.Name, err)
		return err
	}
	return nil
}

// ClearAllTables removes all rows while preserving structure
func (tdb *TestDB) ClearAllTables() error {
	tables := []string{
		"audit_log",
		"notifications",
		"commissions",
		"inquiries",
		"click_events",
		"tracking_links",
		"listings",
		"users",
	}
	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// TestWithDB sets up a test database, runs testFunc and cleans up
func TestWithDB(testFunc func(*TestDB) error) error {
	testDB, err := SetupTestDB()
	if err != nil {
		return fmt.Errorf("failed to setup test database: %w", err)
	}
	defer func() {
		if cleanupErr := testDB.TeardownTestDB(); cleanupErr != nil {
			log.Printf("Warning: failed to cleanup test database: %v", cleanupErr)
		}
	}()
	return testFunc(testDB)
}
